package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/draftsite/draftsite/internal/autogen"
	"github.com/draftsite/draftsite/internal/config"
	apperrors "github.com/draftsite/draftsite/internal/errors"
	"github.com/draftsite/draftsite/internal/gitrefs"
	"github.com/draftsite/draftsite/internal/logfields"
	"github.com/draftsite/draftsite/internal/metrics"
	"github.com/draftsite/draftsite/internal/preview"
	"github.com/draftsite/draftsite/internal/render"
	"github.com/draftsite/draftsite/internal/rendercache"
	"github.com/draftsite/draftsite/internal/site"
	"github.com/draftsite/draftsite/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"draftsite.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		SkipSite bool `help:"Render drafts and generate markdown only, skip the HTML site"`
	} `cmd:"" help:"Render draft versions and build the HTML site"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Discover struct{} `cmd:"" help:"List the refs a build would render, without rendering"`

	Preview struct {
		Port int `short:"p" help:"Override the configured listen port"`
	} `cmd:"" help:"Serve the site and rebuild on working tree changes"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	adapter := apperrors.NewCLIErrorAdapter(CLI.Verbose, nil)

	var err error
	switch kctx.Command() {
	case "build":
		err = runBuild(CLI.Build.SkipSite)
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	case "discover":
		err = runDiscover()
	case "preview":
		err = runPreview(CLI.Preview.Port)
	case "version":
		fmt.Printf("draftsite %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}

	if err != nil {
		adapter.Report(err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		// Missing-file and validation errors already carry a category.
		var be *apperrors.BuildError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, apperrors.ConfigLoadError(CLI.Config, err)
	}
	return cfg, nil
}

func runBuild(skipSite bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	return buildOnce(ctx, cfg, nil, skipSite)
}

// buildOnce runs the render pipeline and, unless skipped, the site build.
func buildOnce(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, skipSite bool) error {
	cache, err := openCache(cfg)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	result, err := autogen.Run(ctx, autogen.Options{
		Config:   cfg,
		Renderer: &render.BinaryRenderer{Binary: cfg.Render.Binary},
		Cache:    cache,
		Recorder: recorder,
	})
	if err != nil {
		return err
	}
	if result.Skipped {
		slog.Info("Nothing to build, no drafts configured")
		return nil
	}

	if skipSite || !cfg.AutogenEnabled() {
		return nil
	}

	summary, err := site.New(cfg).Build()
	if err != nil {
		return err
	}
	slog.Info("Build finished",
		slog.Int("versions", len(result.Versions)),
		slog.Int("site_pages", summary.Pages))
	return nil
}

func openCache(cfg *config.Config) (*rendercache.Store, error) {
	if cfg.Cache.Path == "" {
		return nil, nil
	}
	cache, err := rendercache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, apperrors.BuildFailed("cache", err)
	}
	return cache, nil
}

func runDiscover() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := gitrefs.Open(cfg.Repo)
	if err != nil {
		return apperrors.RepositoryOpenError(cfg.Repo, err)
	}
	refs, err := client.Select(gitrefs.Selection{
		BranchPattern: cfg.BranchPattern,
		TagPattern:    cfg.TagPattern,
		Remotes:       cfg.Remotes,
	})
	if err != nil {
		return apperrors.RefDiscoveryError(err)
	}

	if len(refs) == 0 {
		slog.Warn("No refs matched the configured patterns")
		return nil
	}

	draftFiles := make([]string, 0, len(cfg.Drafts))
	for _, draft := range cfg.Drafts {
		draftFiles = append(draftFiles, draft+".xml")
	}

	for _, ref := range refs {
		fmt.Printf("%-10s %-30s %s  %s\n",
			ref.Type, ref.Path, ref.Hash[:8], ref.CommittedAt.Format("2006-01-02"))

		present, err := client.PresentFiles(ref, draftFiles)
		if err != nil {
			return apperrors.RefDiscoveryError(err)
		}
		for _, name := range present {
			fmt.Printf("           %s\n", strings.TrimSuffix(name, ".xml"))
		}
	}
	return nil
}

func runPreview(portOverride int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if portOverride != 0 {
		cfg.Preview.Port = portOverride
	}

	ctx, cancel := signalContext()
	defer cancel()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	var metricsHandler http.Handler = metrics.Handler(registry)

	rebuild := func(ctx context.Context) error {
		return buildOnce(ctx, cfg, recorder, false)
	}

	server := preview.NewServer(cfg, rebuild, metricsHandler)
	if err := server.Run(ctx); err != nil {
		slog.Error("Preview server failed", logfields.Error(err))
		return err
	}
	return nil
}
