package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/careops-labs/careboard/pkg/core"
)

// renderResult writes an execution result in the requested format.
// A failed result renders its error message in every format.
func renderResult(w io.Writer, res core.ExecutionResult, format string) error {
	if res.Failed() {
		_, err := fmt.Fprintf(w, "Error: %s\n", res.Error)
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"columns": res.Columns,
			"data":    res.Records(),
		})

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(res.Columns); err != nil {
			return err
		}
		for _, row := range res.Rows {
			record := make([]string, len(row))
			for i, v := range row {
				if v == nil {
					continue
				}
				record[i] = fmt.Sprint(v)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case "table", "":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)

		header := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			header[i] = col
		}
		t.AppendHeader(header)

		for _, row := range res.Rows {
			tr := make(table.Row, len(row))
			for i, v := range row {
				if v == nil {
					tr[i] = "NULL"
					continue
				}
				tr[i] = v
			}
			t.AppendRow(tr)
		}
		t.Render()
		_, err := fmt.Fprintf(w, "(%d rows)\n", len(res.Rows))
		return err

	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}
