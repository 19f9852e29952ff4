// Package cli provides the careboard command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/careops-labs/careboard/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "careboard",
		Short: "Careboard - clinical operations dashboard backend",
		Long: `Careboard is the query-execution backend for clinical operations
dashboards. It validates and runs widget queries against an embedded
analytical engine, resolves stored query templates, calls external data
endpoints, and runs what-if capacity scenarios through a linear solver.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./careboard.yaml)")
	rootCmd.PersistentFlags().String("addr", "", "HTTP listen address")
	rootCmd.PersistentFlags().String("engine", "", "analytical engine type (duckdb, postgres)")
	rootCmd.PersistentFlags().String("engine-path", "", "engine database path (duckdb)")
	rootCmd.PersistentFlags().String("store-path", "", "metadata database path")
	rootCmd.PersistentFlags().String("templates-file", "", "query template seed file")
	rootCmd.PersistentFlags().String("datasets-dir", "", "CSV dataset directory")
	rootCmd.PersistentFlags().Bool("watch", false, "re-seed templates when the seed file changes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
