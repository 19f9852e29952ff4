package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/careops-labs/careboard/pkg/sqlcheck"
)

func newValidateCommand() *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "validate [SQL]",
		Short: "Check query text against the retrieval-only whitelist",
		Long: `Parse query text and verify that every statement, including
statements nested in CTEs and derived tables, is a pure retrieval.
Mutation and definition statements are reported with their kind and
position.`,
		Example: `  # Validate inline SQL
  careboard validate "SELECT * FROM visits"

  # Validate a file
  careboard validate -i query.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case inputFile != "":
				buf, err := os.ReadFile(inputFile)
				if err != nil {
					return err
				}
				text = string(buf)
			case len(args) == 1:
				text = args[0]
			default:
				return fmt.Errorf("provide SQL as an argument or with --input")
			}

			if err := sqlcheck.Validate(text); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK: retrieval-only")
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "read SQL from file")
	return cmd
}
