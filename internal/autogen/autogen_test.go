package autogen

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/draftsite/draftsite/internal/config"
	"github.com/draftsite/draftsite/internal/manifest"
	"github.com/draftsite/draftsite/internal/render"
	"github.com/draftsite/draftsite/internal/rendercache"
)

// fakeRenderer writes a canned text file instead of invoking xml2rfc.
type fakeRenderer struct {
	mu          sync.Mutex
	renders     []render.Job
	versionErr  error
	failMatcher func(render.Job) bool
}

func (f *fakeRenderer) Version(context.Context) (string, error) {
	if f.versionErr != nil {
		return "", f.versionErr
	}
	return "fake-xml2rfc 1.0", nil
}

func (f *fakeRenderer) RenderText(_ context.Context, job render.Job) error {
	f.mu.Lock()
	f.renders = append(f.renders, job)
	f.mu.Unlock()

	if f.failMatcher != nil && f.failMatcher(job) {
		return fmt.Errorf("%w: boom", render.ErrConverterFailed)
	}

	draft := strings.TrimSuffix(filepath.Base(job.Source), ".xml")
	text := fmt.Sprintf("rendered %s at %s\n", draft, job.Date.Format("2006-01-02"))
	return os.WriteFile(filepath.Join(job.OutputDir, draft+".txt"), []byte(text), 0o600)
}

func (f *fakeRenderer) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.renders)
}

// newDraftRepo builds a repository with draft-test.xml on master (two
// commits) and a tag on the older commit.
func newDraftRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(content string, when time.Time) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "draft-test.xml"), []byte(content), 0o600))
		_, err := wt.Add("draft-test.xml")
		require.NoError(t, err)
		sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: when}
		_, err = wt.Commit("update draft", &gogit.CommitOptions{Author: sig, Committer: sig})
		require.NoError(t, err)
	}

	commit("<rfc>one</rfc>", time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))
	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v0.1.0", head.Hash(), nil)
	require.NoError(t, err)

	commit("<rfc>two</rfc>", time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC))
	return dir
}

func testConfig(t *testing.T, repoDir string) *config.Config {
	t.Helper()
	return &config.Config{
		Repo:          repoDir,
		Drafts:        []string{"draft-test"},
		BranchPattern: config.DefaultBranchPattern,
		TagPattern:    config.DefaultTagPattern,
		Output:        filepath.Join(t.TempDir(), "_xml2rfc"),
	}
}

func TestRunNoDrafts(t *testing.T) {
	renderer := &fakeRenderer{}
	cfg := testConfig(t, t.TempDir())
	cfg.Drafts = nil

	result, err := Run(context.Background(), Options{Config: cfg, Renderer: renderer})
	require.NoError(t, err)
	require.True(t, result.Skipped)
	require.Zero(t, renderer.renderCount())
}

func TestRunConverterMissing(t *testing.T) {
	renderer := &fakeRenderer{versionErr: render.ErrConverterNotFound}
	cfg := testConfig(t, newDraftRepo(t))

	_, err := Run(context.Background(), Options{Config: cfg, Renderer: renderer})
	require.ErrorIs(t, err, render.ErrConverterNotFound)
}

func TestRunRendersAllRefs(t *testing.T) {
	renderer := &fakeRenderer{}
	cfg := testConfig(t, newDraftRepo(t))

	result, err := Run(context.Background(), Options{Config: cfg, Renderer: renderer})
	require.NoError(t, err)
	require.False(t, result.Skipped)
	require.Equal(t, "fake-xml2rfc 1.0", result.Converter)
	require.Len(t, result.Versions, 2)
	require.Equal(t, 2, renderer.renderCount())

	// Rendered text lands under the grouped ref path.
	for _, rel := range []string{
		"branches/master/draft-test.txt",
		"tags/v0.1.0/draft-test.txt",
	} {
		_, err := os.Stat(filepath.Join(cfg.Output, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}

	// Full page tree: two version pages, two per-type tocs, one diff page,
	// the diffs toc, the draft toc and the root toc.
	require.Equal(t, 8, result.Pages)
	for _, rel := range []string{
		"toc.md",
		"toc-draft-test.md",
		"toc-draft-test-branches.md",
		"toc-draft-test-tags.md",
		"toc-draft-test-diffs.md",
		"branches/master/draft-test.md",
		"tags/v0.1.0/draft-test.md",
		"branches/master/draft-test-diff-from-tags.v0.1.0.md",
	} {
		_, err := os.Stat(filepath.Join(cfg.Output, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
	}

	m, err := manifest.Load(filepath.Join(cfg.Output, manifest.FileName))
	require.NoError(t, err)
	require.Len(t, m.Versions, 2)
	require.Equal(t, 8, m.Pages)
	require.NotEmpty(t, m.BuildID)
}

func TestRunConverterFailureSkipsVersion(t *testing.T) {
	renderer := &fakeRenderer{
		failMatcher: func(job render.Job) bool {
			return strings.Contains(job.OutputDir, "tags")
		},
	}
	cfg := testConfig(t, newDraftRepo(t))

	var logBuf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	defer slog.SetDefault(prev)

	result, err := Run(context.Background(), Options{Config: cfg, Renderer: renderer})
	require.NoError(t, err)
	require.Len(t, result.Versions, 1)
	require.Equal(t, "branches/master", result.Versions[0].Ref.Path)

	// The skipped version is reported as a converter failure.
	require.Contains(t, logBuf.String(), "converter invocation failed")
	require.Contains(t, logBuf.String(), "draft-test")

	// A single surviving version has nothing to diff against.
	_, statErr := os.Stat(filepath.Join(cfg.Output, "toc-draft-test-diffs.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunAutogenDisabled(t *testing.T) {
	renderer := &fakeRenderer{}
	cfg := testConfig(t, newDraftRepo(t))
	disabled := false
	cfg.AutogenDocs = &disabled

	result, err := Run(context.Background(), Options{Config: cfg, Renderer: renderer})
	require.NoError(t, err)
	require.Len(t, result.Versions, 2)
	require.Zero(t, result.Pages)

	_, statErr := os.Stat(filepath.Join(cfg.Output, "toc.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRunCacheSkipsRerender(t *testing.T) {
	cache, err := rendercache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	cfg := testConfig(t, newDraftRepo(t))

	first := &fakeRenderer{}
	_, err = Run(context.Background(), Options{Config: cfg, Renderer: first, Cache: cache})
	require.NoError(t, err)
	require.Equal(t, 2, first.renderCount())

	second := &fakeRenderer{}
	result, err := Run(context.Background(), Options{Config: cfg, Renderer: second, Cache: cache})
	require.NoError(t, err)
	require.Zero(t, second.renderCount())
	require.Len(t, result.Versions, 2)

	for _, rec := range result.Manifest.Versions {
		require.True(t, rec.Cached, rec.RefPath)
	}
}

func TestDraftFileNames(t *testing.T) {
	cfg := &config.Config{
		Drafts:  []string{"draft-a", "draft-b"},
		Sources: []string{"bib.xml", "draft-a.xml"},
	}
	require.Equal(t,
		[]string{"draft-a.xml", "draft-b.xml", "bib.xml"},
		DraftFileNames(cfg))
}
