// Package autogen orchestrates the build: ref discovery, per-ref rendering
// through the external converter, and generation of the markdown pages that
// embed the results.
package autogen

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/draftsite/draftsite/internal/config"
	apperrors "github.com/draftsite/draftsite/internal/errors"
	"github.com/draftsite/draftsite/internal/gitrefs"
	"github.com/draftsite/draftsite/internal/logfields"
	"github.com/draftsite/draftsite/internal/manifest"
	"github.com/draftsite/draftsite/internal/metrics"
	"github.com/draftsite/draftsite/internal/render"
	"github.com/draftsite/draftsite/internal/rendercache"
	"github.com/draftsite/draftsite/internal/workspace"
)

// AutoVersion is one successfully rendered draft version.
type AutoVersion struct {
	Draft string
	Ref   gitrefs.Ref
}

// Options configures a build run.
type Options struct {
	Config   *config.Config
	Renderer render.Renderer
	Cache    *rendercache.Store // optional render cache
	Recorder metrics.Recorder   // optional metrics sink
}

// Result reports what a build produced.
type Result struct {
	// Skipped is true when no drafts are configured and nothing ran.
	Skipped   bool
	Converter string
	Versions  []AutoVersion
	Pages     int
	Manifest  *manifest.Manifest
}

// Run executes the build into cfg.Output.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	if len(cfg.Drafts) == 0 {
		slog.Debug("No drafts configured, skipping autogen")
		return &Result{Skipped: true}, nil
	}

	buildStart := time.Now()

	converterVersion, err := opts.Renderer.Version(ctx)
	if err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, apperrors.ConverterMissing(cfg.Render.Binary, err)
	}
	slog.Info("Using converter", slog.String("version", converterVersion))

	stageStart := time.Now()
	client, err := gitrefs.Open(cfg.Repo)
	if err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, apperrors.RepositoryOpenError(cfg.Repo, err)
	}
	refs, err := client.Select(gitrefs.Selection{
		BranchPattern: cfg.BranchPattern,
		TagPattern:    cfg.TagPattern,
		Remotes:       cfg.Remotes,
	})
	if err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, apperrors.RefDiscoveryError(err)
	}
	recorder.ObserveStageDuration("discover", time.Since(stageStart))
	slog.Info("Selected refs", slog.Int("count", len(refs)))

	if err := os.MkdirAll(cfg.Output, 0o750); err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, apperrors.WorkspaceError("output", err)
	}

	m := manifest.New(converterVersion)

	stageStart = time.Now()
	versions, err := renderAll(ctx, cfg, client, refs, opts.Renderer, converterVersion, opts.Cache, recorder, m)
	if err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, err
	}
	recorder.ObserveStageDuration("render", time.Since(stageStart))
	recorder.SetVersionsSelected(len(versions))

	result := &Result{
		Converter: converterVersion,
		Versions:  versions,
		Manifest:  m,
	}

	if cfg.AutogenEnabled() {
		stageStart = time.Now()
		pages, err := GeneratePages(cfg.Output, cfg.Drafts, versions)
		if err != nil {
			recorder.IncBuildOutcome("failed")
			return nil, apperrors.BuildFailed("pages", err)
		}
		recorder.ObserveStageDuration("pages", time.Since(stageStart))
		recorder.SetPagesGenerated(pages)
		result.Pages = pages
	}

	m.Pages = result.Pages
	m.Finish()
	if err := m.Write(cfg.Output); err != nil {
		recorder.IncBuildOutcome("failed")
		return nil, apperrors.BuildFailed("manifest", err)
	}

	recorder.ObserveBuildDuration(time.Since(buildStart))
	recorder.IncBuildOutcome("success")
	slog.Info("Build completed",
		logfields.BuildID(m.BuildID),
		slog.Int("versions", len(versions)),
		slog.Int("pages", result.Pages),
		logfields.DurationMS(float64(time.Since(buildStart).Milliseconds())))
	return result, nil
}

// renderAll renders every configured draft at every selected ref. Converter
// failures skip the version; everything else aborts the build.
func renderAll(ctx context.Context, cfg *config.Config, client *gitrefs.Client, refs []gitrefs.Ref,
	renderer render.Renderer, converterVersion string, cache *rendercache.Store,
	recorder metrics.Recorder, m *manifest.Manifest) ([]AutoVersion, error) {

	fileNames := DraftFileNames(cfg)

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return nil, apperrors.WorkspaceError("create", err)
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	var versions []AutoVersion
	for _, ref := range refs {
		outputDir := filepath.Join(cfg.Output, filepath.FromSlash(ref.Path))
		if err := os.MkdirAll(outputDir, 0o750); err != nil {
			return nil, apperrors.WorkspaceError("output", err)
		}

		extractDir, err := ws.CreateSubdir(filepath.FromSlash(ref.Path))
		if err != nil {
			return nil, apperrors.WorkspaceError("extract", err)
		}
		extracted, err := client.ExtractFiles(ref, fileNames, extractDir)
		if err != nil {
			return nil, apperrors.RefDiscoveryError(err)
		}
		present := make(map[string]bool, len(extracted))
		for _, name := range extracted {
			present[name] = true
		}

		for _, draft := range cfg.Drafts {
			txtPath := filepath.Join(outputDir, draft+".txt")

			if cacheHit(ctx, cache, draft, ref.Hash, converterVersion, txtPath) {
				slog.Debug("Render cache hit", logfields.Draft(draft), logfields.Ref(ref.Path))
				recorder.IncRenderResult(draft, metrics.RenderCached)
				versions = append(versions, AutoVersion{Draft: draft, Ref: ref})
				m.AddVersion(versionRecord(draft, ref, true))
				continue
			}

			if !present[draft+".xml"] {
				slog.Debug("Draft source absent at ref", logfields.Draft(draft), logfields.Ref(ref.Path))
				continue
			}

			slog.Info("Generating output", logfields.Draft(draft), logfields.Ref(ref.Path))
			err := renderer.RenderText(ctx, render.Job{
				Source:    filepath.Join(extractDir, draft+".xml"),
				Date:      ref.CommittedAt,
				OutputDir: outputDir,
			})
			if err != nil {
				// One broken version must not sink the build.
				slog.Warn("Converter failed, skipping version",
					logfields.Draft(draft), logfields.Ref(ref.Path),
					logfields.Error(apperrors.ConverterFailed(draft, ref.Path, err)))
				recorder.IncRenderResult(draft, metrics.RenderFailed)
				continue
			}

			recorder.IncRenderResult(draft, metrics.RenderSuccess)
			versions = append(versions, AutoVersion{Draft: draft, Ref: ref})
			m.AddVersion(versionRecord(draft, ref, false))
			storeCache(ctx, cache, draft, ref.Hash, converterVersion, txtPath)
		}
	}
	return versions, nil
}

func versionRecord(draft string, ref gitrefs.Ref, cached bool) manifest.VersionRecord {
	return manifest.VersionRecord{
		Draft:       draft,
		RefType:     string(ref.Type),
		RefName:     ref.Name,
		RefPath:     ref.Path,
		Commit:      ref.Hash,
		CommittedAt: ref.CommittedAt,
		Cached:      cached,
	}
}

func cacheHit(ctx context.Context, cache *rendercache.Store, draft, hash, converter, txtPath string) bool {
	if cache == nil {
		return false
	}
	_, found, err := cache.Lookup(ctx, draft, hash, converter)
	if err != nil {
		slog.Warn("Render cache lookup failed", logfields.Draft(draft), logfields.Error(err))
		return false
	}
	if !found {
		return false
	}
	// A stale entry whose output vanished forces a re-render.
	if _, err := os.Stat(txtPath); err != nil {
		return false
	}
	return true
}

func storeCache(ctx context.Context, cache *rendercache.Store, draft, hash, converter, txtPath string) {
	if cache == nil {
		return
	}
	err := cache.Record(ctx, rendercache.Entry{
		Draft:      draft,
		CommitHash: hash,
		Converter:  converter,
		OutputPath: txtPath,
	})
	if err != nil {
		slog.Warn("Render cache store failed", logfields.Draft(draft), logfields.Error(err))
	}
}

// DraftFileNames returns the file names a build extracts at each ref: the
// XML source per draft plus any extra include sources.
func DraftFileNames(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Drafts)+len(cfg.Sources))
	for _, draft := range cfg.Drafts {
		names = append(names, draft+".xml")
	}
	for _, src := range cfg.Sources {
		if !slices.Contains(names, src) {
			names = append(names, src)
		}
	}
	return names
}
