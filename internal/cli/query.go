package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/careops-labs/careboard/pkg/core"
)

// queryOptions holds options for the query command.
type queryOptions struct {
	Format  string
	Filters []string
}

func newQueryCommand() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a retrieval query against the analytical engine",
		Long: `Run query text through the execution pipeline: safety validation,
filter binding, engine execution. Filters given with --filter bind to
:name markers in the query as parameters.

When invoked without arguments, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  careboard query "SELECT service, count(*) FROM visits GROUP BY service"

  # Bind a filter marker
  careboard query "SELECT * FROM visits WHERE unit = :unit" --filter unit=ICU

  # Output as JSON
  careboard query "SELECT * FROM visits" --format json

  # Interactive mode
  careboard query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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
			filters, err := parseFilters(opts.Filters)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				res := d.ExecuteQueryText(ctx, args[0], filters)
				return renderResult(cmd.OutOrStdout(), res, opts.Format)
			}
			return runQueryREPL(cmd, d, filters, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "output format: table, json, csv")
	cmd.Flags().StringArrayVar(&opts.Filters, "filter", nil, "filter binding as key=value (repeatable)")
	return cmd
}

// parseFilters converts key=value pairs into an ordered filter set.
func parseFilters(pairs []string) (core.GlobalFilterSet, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", pair)
		}
		m[key] = value
	}
	return core.FiltersFromMap(m), nil
}

type replDispatcher interface {
	ExecuteQueryText(ctx context.Context, queryText string, filters core.GlobalFilterSet) core.ExecutionResult
}

func runQueryREPL(cmd *cobra.Command, d replDispatcher, filters core.GlobalFilterSet, opts *queryOptions) error {
	ctx := cmd.Context()

	historyFile := filepath.Join(filepath.Dir(cfg.StorePath), ".careboard_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "careboard> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Careboard query REPL (engine: %s)\n", cfg.Engine.Type)
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			rl.SetPrompt("careboard> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch line {
			case ".quit", ".exit":
				return nil
			case ".help":
				_, _ = fmt.Fprintln(out, "  .help    show this help")
				_, _ = fmt.Fprintln(out, "  .quit    exit the REPL")
				_, _ = fmt.Fprintln(out, "Statements run after a terminating semicolon.")
				continue
			default:
				_, _ = fmt.Fprintf(out, "Unknown command %s (try .help)\n", line)
				continue
			}
		}

		// Accumulate multi-line SQL until a semicolon.
		buffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buffer.WriteString(" ")
			rl.SetPrompt("      ...> ")
			continue
		}
		rl.SetPrompt("careboard> ")

		query := strings.TrimSuffix(buffer.String(), ";")
		buffer.Reset()

		res := d.ExecuteQueryText(ctx, query, filters)
		if err := renderResult(out, res, opts.Format); err != nil {
			_, _ = fmt.Fprintf(out, "render error: %v\n", err)
		}
	}
	return nil
}
