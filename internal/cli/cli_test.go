package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careops-labs/careboard/pkg/core"
)

func TestParseFilters(t *testing.T) {
	filters, err := parseFilters([]string{"unit=ICU", "dateFrom=2026-01-01"})
	require.NoError(t, err)
	require.Len(t, filters, 2)

	v, ok := filters.Get("unit")
	require.True(t, ok)
	assert.Equal(t, "ICU", v)

	_, err = parseFilters([]string{"no-equals"})
	assert.Error(t, err)
}

func TestRenderResult_Table(t *testing.T) {
	var buf bytes.Buffer
	res := core.ExecutionResult{
		Columns: []string{"service", "n"},
		Rows:    []core.Row{{"CARD", int64(4)}, {"NEURO", nil}},
	}
	require.NoError(t, renderResult(&buf, res, "table"))

	out := buf.String()
	// StyleLight upper-cases header cells.
	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "CARD")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows)")
}

func TestRenderResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	res := core.ExecutionResult{
		Columns: []string{"n"},
		Rows:    []core.Row{{int64(1)}},
	}
	require.NoError(t, renderResult(&buf, res, "json"))
	assert.Contains(t, buf.String(), `"columns"`)
}

func TestRenderResult_CSV(t *testing.T) {
	var buf bytes.Buffer
	res := core.ExecutionResult{
		Columns: []string{"service", "n"},
		Rows:    []core.Row{{"CARD", int64(4)}},
	}
	require.NoError(t, renderResult(&buf, res, "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "service,n", lines[0])
	assert.Equal(t, "CARD,4", lines[1])
}

func TestRenderResult_Error(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderResult(&buf, core.ErrorResult("boom"), "table"))
	assert.Contains(t, buf.String(), "Error: boom")
}

func TestRenderResult_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	res := core.ExecutionResult{Columns: []string{"n"}}
	assert.Error(t, renderResult(&buf, res, "yaml"))
}

func TestRootCommand_Version(t *testing.T) {
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "careboard")
}
