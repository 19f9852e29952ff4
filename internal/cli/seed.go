package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load query templates and CSV datasets",
		Long: `Load query templates from the YAML seed file into the metadata
store, and load every CSV file in the datasets directory into the
analytical engine as a table named after the file.`,
		Example: `  # Seed templates and datasets from the configured locations
  careboard seed

  # Seed from explicit paths
  careboard seed --templates-file ./seed/templates.yaml --datasets-dir ./seed/data`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if _, err := os.Stat(cfg.Seeds.TemplatesFile); err == nil {
				n, err := st.SeedTemplates(ctx, cfg.Seeds.TemplatesFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Loaded %d templates from %s\n", n, cfg.Seeds.TemplatesFile)
			} else {
				fmt.Fprintf(out, "No template seed file at %s (skipping)\n", cfg.Seeds.TemplatesFile)
			}

			eng, err := openEngine(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			entries, err := os.ReadDir(cfg.Seeds.DatasetsDir)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(out, "No datasets directory at %s (skipping)\n", cfg.Seeds.DatasetsDir)
					return nil
				}
				return fmt.Errorf("failed to read datasets directory: %w", err)
			}

			loaded := 0
			for _, entry := range entries {
				if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
					continue
				}
				tableName := strings.TrimSuffix(entry.Name(), ".csv")
				csvPath := filepath.Join(cfg.Seeds.DatasetsDir, entry.Name())

				logger.Debug("loading dataset", "table", tableName, "path", csvPath)
				if err := eng.Ingest(ctx, tableName, csvPath); err != nil {
					return fmt.Errorf("failed to load dataset %s: %w", entry.Name(), err)
				}
				fmt.Fprintf(out, "Loaded %s -> %s\n", entry.Name(), tableName)
				loaded++
			}
			fmt.Fprintf(out, "Loaded %d datasets from %s\n", loaded, cfg.Seeds.DatasetsDir)
			return nil
		},
	}
}
