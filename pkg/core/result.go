package core

import "fmt"

// Row is one record of an ExecutionResult. Values are positional and
// align with the result's Columns.
type Row []any

// ExecutionResult is the uniform result contract consumed by every
// visualization type. Error and populated Rows are mutually exclusive:
// a failed execution carries a message and no rows.
type ExecutionResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Error   string   `json:"error,omitempty"`
}

// ErrorResult builds a failed ExecutionResult. Failure is data, not an
// exception: a dashboard of N widgets can partially succeed.
func ErrorResult(format string, args ...any) ExecutionResult {
	return ExecutionResult{Error: fmt.Sprintf(format, args...)}
}

// Failed reports whether the execution produced an error.
func (r ExecutionResult) Failed() bool {
	return r.Error != ""
}

// Validate checks the structural invariants: every row has exactly the
// declared columns, and error/rows are mutually exclusive.
func (r ExecutionResult) Validate() error {
	if r.Error != "" && len(r.Rows) > 0 {
		return fmt.Errorf("result carries both error %q and %d rows", r.Error, len(r.Rows))
	}
	for i, row := range r.Rows {
		if len(row) != len(r.Columns) {
			return fmt.Errorf("row %d has %d values, expected %d columns", i, len(row), len(r.Columns))
		}
	}
	return nil
}

// Records converts the positional rows into column-keyed maps, one per
// row. Used at the wire boundary where rows are rendered as JSON
// objects; column order is preserved separately in Columns.
func (r ExecutionResult) Records() []map[string]any {
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records
}
