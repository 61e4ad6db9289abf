package autogen

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftsite/draftsite/internal/gitrefs"
)

func version(draft, name string, refType gitrefs.RefType, when time.Time) AutoVersion {
	return AutoVersion{
		Draft: draft,
		Ref: gitrefs.Ref{
			Type:        refType,
			Name:        name,
			Path:        string(refType) + "/" + name,
			Hash:        "deadbeef",
			CommittedAt: when,
		},
	}
}

func TestDiffPairs(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v1 := version("draft-x", "v1.0.0", gitrefs.RefTypeTags, t0)
	v2 := version("draft-x", "v1.1.0", gitrefs.RefTypeTags, t0.Add(time.Hour))
	main := version("draft-x", "main", gitrefs.RefTypeBranches, t0.Add(2*time.Hour))

	pairs := diffPairs([]AutoVersion{v1, main, v2})
	require.Len(t, pairs, 3)

	// Each version diffs against every older one, newest first.
	assert.Equal(t, "branches/main", pairs[0].To.Ref.Path)
	assert.Equal(t, "tags/v1.1.0", pairs[0].From.Ref.Path)
	assert.Equal(t, "branches/main", pairs[1].To.Ref.Path)
	assert.Equal(t, "tags/v1.0.0", pairs[1].From.Ref.Path)
	assert.Equal(t, "tags/v1.1.0", pairs[2].To.Ref.Path)
	assert.Equal(t, "tags/v1.0.0", pairs[2].From.Ref.Path)
}

func TestDiffPairsEqualTimestamps(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// A tag on the branch head shares its commit time; neither is a
	// predecessor of the other.
	main := version("draft-x", "main", gitrefs.RefTypeBranches, t0)
	tag := version("draft-x", "v1.0.0", gitrefs.RefTypeTags, t0)

	require.Empty(t, diffPairs([]AutoVersion{main, tag}))
}

func TestGeneratePagesNoVersions(t *testing.T) {
	dir := t.TempDir()
	pages, err := GeneratePages(dir, []string{"draft-x"}, nil)
	require.NoError(t, err)
	require.Zero(t, pages)

	_, statErr := os.Stat(filepath.Join(dir, "toc.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestGeneratePagesTree(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	versions := []AutoVersion{
		version("draft-x", "v1.0.0", gitrefs.RefTypeTags, t0),
		version("draft-x", "v1.1.0", gitrefs.RefTypeTags, t0.Add(time.Hour)),
		version("draft-x", "main", gitrefs.RefTypeBranches, t0.Add(2*time.Hour)),
	}

	pages, err := GeneratePages(dir, []string{"draft-x"}, versions)
	require.NoError(t, err)
	// 3 version pages, 3 diff pages, 2 per-type tocs, diff toc, draft toc,
	// root toc.
	require.Equal(t, 11, pages)

	read := func(rel string) string {
		t.Helper()
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		return string(data)
	}

	root := read("toc.md")
	assert.Contains(t, root, "# Internet Drafts")
	assert.Contains(t, root, ":maxdepth: 3")
	assert.Contains(t, root, "toc-draft-x")

	draftToc := read("toc-draft-x.md")
	assert.Contains(t, draftToc, "toc-draft-x-branches")
	assert.Contains(t, draftToc, "toc-draft-x-tags")
	assert.Contains(t, draftToc, "toc-draft-x-diffs")

	branchToc := read("toc-draft-x-branches.md")
	assert.Contains(t, branchToc, "# branches")
	assert.Contains(t, branchToc, "branches/main/draft-x")

	versionPage := read("branches/main/draft-x.md")
	assert.Contains(t, versionPage, "# branches: main")
	assert.Contains(t, versionPage, ":::{xml2rfc:version} draft-x")
	assert.Contains(t, versionPage, ":ref_type: branches")
	assert.Contains(t, versionPage, ":ref_name: main")
	assert.Contains(t, versionPage, ":ref_path: branches/main")

	diffToc := read("toc-draft-x-diffs.md")
	assert.Contains(t, diffToc, "# changes")
	assert.Contains(t, diffToc, "branches/main/draft-x-diff-from-tags.v1.1.0")
	assert.Contains(t, diffToc, "branches/main/draft-x-diff-from-tags.v1.0.0")
	assert.Contains(t, diffToc, "tags/v1.1.0/draft-x-diff-from-tags.v1.0.0")

	// The newest version diffs against both older tags, not just the
	// nearest one.
	diffPage := read("branches/main/draft-x-diff-from-tags.v1.0.0.md")
	assert.Contains(t, diffPage, "# tags/v1.0.0 ⟼ branches/main")
	assert.Contains(t, diffPage, ":::{xml2rfc:diff} draft-x")
	assert.Contains(t, diffPage, ":from: tags/v1.0.0")
	assert.Contains(t, diffPage, ":to: branches/main")

	nearest := read("branches/main/draft-x-diff-from-tags.v1.1.0.md")
	assert.Contains(t, nearest, "# tags/v1.1.0 ⟼ branches/main")
	assert.Contains(t, nearest, ":from: tags/v1.1.0")
}

func TestGeneratePagesOmitsTypesWithoutVersions(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	versions := []AutoVersion{version("draft-x", "main", gitrefs.RefTypeBranches, t0)}

	_, err := GeneratePages(dir, []string{"draft-x"}, versions)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "toc-draft-x-tags.md"))
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, "toc-draft-x-diffs.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestDiffPageNameSanitizesSlashes(t *testing.T) {
	from := version("draft-x", "origin/feature", gitrefs.RefTypeBranches, time.Now())
	require.Equal(t, "draft-x-diff-from-branches.origin-feature", diffPageName("draft-x", from))
}
