package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/nebulasql/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Addr  string
	Watch []string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over HTTP",
		Long: `Start a JSON API exposing parse, format, check and tokens.

Endpoints:
  GET  /healthz
  GET  /api/dialects
  GET  /api/rules
  GET  /api/events     server-sent change events (with --watch)
  POST /api/parse      {"sql": "...", "expr": false}
  POST /api/format     {"sql": "...", "keyword_case": "lower", "compact": false}
  POST /api/check      {"sql": "..."}
  POST /api/tokens     {"sql": "...", "comments": true}

Each POST body may also carry "dialect", "ansi_keywords" and
"legacy_exponent_as_decimal".`,
		Example: `  # Serve on the configured address
  nebulasql serve

  # Serve on all interfaces and push changes under ./queries
  nebulasql serve --addr :8080 --watch queries`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "Listen address (default from serve.addr)")
	cmd.Flags().StringSliceVar(&opts.Watch, "watch", nil, "Directories to watch for .sql changes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string, opts *ServeOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	lintCfg, err := cc.Cfg.BuildLintConfig()
	if err != nil {
		return err
	}
	kc, err := cc.Cfg.ResolveKeywordCase()
	if err != nil {
		return err
	}
	addr := cc.Cfg.Serve.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(server.Config{
		Addr:        addr,
		Dialect:     cc.Dialect,
		Lint:        lintCfg,
		KeywordCase: kc,
		WatchDirs:   opts.Watch,
		Logger:      cc.Logger,
	})

	cc.Renderer.Success("Listening on http://" + addr)
	return srv.Serve(ctx)
}
