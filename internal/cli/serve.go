package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/careops-labs/careboard/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the careboard HTTP server",
		Long: `Start the HTTP server exposing dashboard refresh, widget execution,
scenario simulation and metadata CRUD endpoints.

With --watch, the query template seed file is re-loaded whenever it
changes on disk.`,
		Example: `  # Serve with defaults (duckdb engine, :8080)
  careboard serve

  # Serve against Postgres on another port
  careboard serve --engine postgres --addr :9090

  # Re-seed templates on change during development
  careboard serve --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			eng, err := openEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			d := newDispatcher(cfg, eng, st)
			srv := server.New(server.Config{
				Store:           st,
				Dispatcher:      d,
				Bridge:          newBridge(cfg, d),
				Addr:            cfg.Server.Addr,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				Watch:           cfg.Watch,
				TemplatesFile:   cfg.Seeds.TemplatesFile,
				Logger:          logger,
			})
			return srv.Serve(ctx)
		},
	}
}
