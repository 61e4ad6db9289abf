// Package preview serves the generated site over HTTP and rebuilds it when
// the repository working tree changes.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"github.com/draftsite/draftsite/internal/config"
	"github.com/draftsite/draftsite/internal/logfields"
	"github.com/draftsite/draftsite/internal/version"
)

const (
	debounceDelay   = 300 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// RebuildFunc re-renders the site from the current working tree.
type RebuildFunc func(ctx context.Context) error

// buildStatus tracks the last rebuild outcome for the health endpoint.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastBuild    time.Time
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.lastBuild = time.Now()
}

func (bs *buildStatus) setSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.lastBuild = time.Now()
	bs.hasGoodBuild = true
}

func (bs *buildStatus) snapshot() (err error, lastBuild time.Time, good bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.lastBuild, bs.hasGoodBuild
}

// Server watches the repository, rebuilds the site and serves it.
type Server struct {
	cfg     *config.Config
	rebuild RebuildFunc
	metrics http.Handler // optional /metrics handler
	status  buildStatus
}

// NewServer creates a preview server. metricsHandler may be nil.
func NewServer(cfg *config.Config, rebuild RebuildFunc, metricsHandler http.Handler) *Server {
	return &Server{cfg: cfg, rebuild: rebuild, metrics: metricsHandler}
}

// Run builds once, then serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		// The server still starts so the health endpoint can report it.
		slog.Error("Initial build failed", logfields.Error(err))
		s.status.setError(err)
	} else {
		s.status.setSuccess()
	}

	port := s.cfg.Preview.Port
	if port == 0 {
		port = config.DefaultPreviewPort
	}
	httpSrv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Preview server listening", slog.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	watcher, err := newRepoWatcher(s.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	rebuildReq, trigger := newDebouncer()
	s.startRebuildWorker(ctx, rebuildReq)

	scheduler, err := s.startScheduler(rebuildReq)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return s.shutdown(httpSrv, scheduler)
		case err := <-errCh:
			return fmt.Errorf("preview server: %w", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) routes() http.Handler {
	siteDir := s.cfg.Site.Directory
	if siteDir == "" {
		siteDir = config.DefaultSiteDir
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(siteDir)))
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	lastErr, lastBuild, good := s.status.snapshot()

	state := "ok"
	code := http.StatusOK
	if lastErr != nil {
		state = "degraded"
		if !good {
			code = http.StatusServiceUnavailable
		}
	}

	body := map[string]any{
		"status":  state,
		"version": version.Version,
	}
	if !lastBuild.IsZero() {
		body["last_build"] = lastBuild.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		body["last_error"] = lastErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// newDebouncer coalesces bursts of filesystem events into one rebuild.
func newDebouncer() (chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	return rebuildReq, trigger
}

// startRebuildWorker serializes rebuilds; requests arriving during a build
// queue exactly one follow-up.
func (s *Server) startRebuildWorker(ctx context.Context, rebuildReq chan struct{}) {
	var mu sync.Mutex
	running := false
	pending := false

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-rebuildReq:
				mu.Lock()
				if running {
					pending = true
					mu.Unlock()
					continue
				}
				running = true
				mu.Unlock()

				slog.Info("Change detected, rebuilding site")
				if err := s.rebuild(ctx); err != nil {
					slog.Warn("Rebuild failed", logfields.Error(err))
					s.status.setError(err)
				} else {
					s.status.setSuccess()
				}

				mu.Lock()
				running = false
				if pending {
					pending = false
					mu.Unlock()
					select {
					case rebuildReq <- struct{}{}:
					default:
					}
					continue
				}
				mu.Unlock()
			}
		}
	}()
}

// startScheduler sets up the optional periodic refresh. Returns nil when no
// refresh interval is configured.
func (s *Server) startScheduler(rebuildReq chan struct{}) (gocron.Scheduler, error) {
	if s.cfg.Preview.RefreshInterval == "" {
		return nil, nil
	}
	interval, err := time.ParseDuration(s.cfg.Preview.RefreshInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh interval %q: %w", s.cfg.Preview.RefreshInterval, err)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		}),
		gocron.WithName("refresh-build"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule refresh job: %w", err)
	}

	scheduler.Start()
	slog.Info("Scheduled periodic refresh", slog.Duration("interval", interval))
	return scheduler, nil
}

func (s *Server) shutdown(httpSrv *http.Server, scheduler gocron.Scheduler) error {
	slog.Info("Shutting down preview server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if scheduler != nil {
		if err := scheduler.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown error", logfields.Error(err))
		}
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// newRepoWatcher watches the repository working tree recursively, skipping
// the .git directory and the build outputs.
func newRepoWatcher(cfg *config.Config) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}

	root := cfg.Repo
	if root == "" {
		root = "."
	}
	if err := addDirsRecursive(watcher, root, cfg); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func addDirsRecursive(watcher *fsnotify.Watcher, root string, cfg *config.Config) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if skipDir(path, d.Name(), cfg) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func skipDir(path, name string, cfg *config.Config) bool {
	if name == ".git" {
		return true
	}
	for _, out := range []string{cfg.Output, cfg.Site.Directory} {
		if out == "" {
			continue
		}
		if abs, err := filepath.Abs(out); err == nil {
			if absPath, err := filepath.Abs(path); err == nil && absPath == abs {
				return true
			}
		}
	}
	return false
}

// handleEvent registers newly created directories and triggers a rebuild for
// content changes.
func (s *Server) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if ev.Op&fsnotify.Create != 0 {
		if err := addDirsRecursive(watcher, ev.Name, s.cfg); err != nil {
			// The created path may already be gone; not fatal.
			slog.Debug("Watch add failed", logfields.Path(ev.Name), logfields.Error(err))
		}
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		trigger()
	}
}
