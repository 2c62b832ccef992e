// Package server exposes the parser, formatter and linter over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/nebulasql/internal/server/notifier"
	"github.com/leapstack-labs/nebulasql/pkg/dialect"
	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

const (
	shutdownTimeout = 5 * time.Second
	debounceDelay   = 100 * time.Millisecond
)

// Config holds configuration for the server.
type Config struct {
	Addr        string
	Dialect     *dialect.Dialect
	Lint        *lint.Config
	KeywordCase format.KeywordCase
	// WatchDirs are walked recursively; a change to a .sql file under
	// them is pushed to /api/events subscribers.
	WatchDirs []string
	Logger    *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	addr      string
	watchDirs []string
	logger    *slog.Logger
	notifier  *notifier.Notifier
	handlers  *Handlers
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := cfg.Dialect
	if d == nil {
		d = dialect.Default()
	}
	lintCfg := cfg.Lint
	if lintCfg == nil {
		lintCfg = lint.NewConfig()
	}
	n := notifier.New()

	return &Server{
		addr:      cfg.Addr,
		watchDirs: cfg.WatchDirs,
		logger:    logger,
		notifier:  n,
		handlers:  NewHandlers(d, lintCfg, cfg.KeywordCase, n, logger),
	}
}

// Notifier returns the change notifier feeding /api/events.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		requestLogger(s.logger),
		middleware.Recoverer,
		middleware.Compress(5),
	)
	SetupRoutes(r, s.handlers)
	return r
}

// Serve listens on the configured address and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return egctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("serving", "addr", ln.Addr().String())

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(s.watchDirs) > 0 {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	return eg.Wait()
}

// watchFiles broadcasts changed .sql files until ctx is done. Bursts of
// events for one file are collapsed.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range s.watchDirs {
		if err := watchDirRecursive(watcher, dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".sql") {
				continue
			}

			path := filepath.Clean(event.Name)
			if t, ok := timers[path]; ok {
				t.Stop()
			}
			timers[path] = time.AfterFunc(debounceDelay, func() {
				s.logger.Debug("file changed", "file", path)
				s.notifier.Broadcast(notifier.Event{Path: path})
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all non-hidden subdirectories.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
