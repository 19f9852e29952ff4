// Package result converts heterogeneous raw outputs (engine rows and
// JSON payloads from external calls) into the one uniform column/row
// contract every visualization type consumes.
package result

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/careops-labs/careboard/pkg/core"
)

// FromRows normalizes tabular engine output. Columns come from the
// engine's own schema in original order. Values pass through as typed
// scalars (numbers stay numbers, timestamps stay timestamps) so
// visualization components can aggregate without re-parsing; only raw
// byte slices are converted to strings.
func FromRows(rows *sql.Rows) (core.ExecutionResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return core.ExecutionResult{}, fmt.Errorf("failed to read result schema: %w", err)
	}

	res := core.ExecutionResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return core.ExecutionResult{}, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, val := range values {
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[i] = val
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return core.ExecutionResult{}, fmt.Errorf("error iterating rows: %w", err)
	}
	return res, nil
}

// FromJSON normalizes a JSON payload from an external call. Accepted
// shapes: a top-level array of objects, an object with a "data" array,
// or a single object (one row).
//
// Canonical columns are the FIRST record's keys in their original
// order; later records missing a key get a null placeholder, and keys
// not present in the first record are dropped. This asymmetric policy
// is a deliberate simplification inherited from the original system: a
// heterogeneous payload can silently lose fields that first appear
// after record one. Kept as-is so all visualizations see the same
// shape.
func FromJSON(payload []byte) (core.ExecutionResult, error) {
	records, keys, err := decodeRecords(payload)
	if err != nil {
		return core.ExecutionResult{}, err
	}

	res := core.ExecutionResult{Columns: keys}
	for _, rec := range records {
		row := make(core.Row, len(keys))
		for i, key := range keys {
			if v, ok := rec[key]; ok {
				row[i] = v
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// decodeRecords parses the payload into records plus the first record's
// key order. encoding/json maps lose key order, so the order is
// recovered from the token stream.
func decodeRecords(payload []byte) ([]map[string]any, []string, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []map[string]any
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, nil, fmt.Errorf("failed to decode JSON array: %w", err)
		}
		if len(records) == 0 {
			return nil, nil, nil
		}
		keys, err := objectKeys(firstElement(trimmed))
		if err != nil {
			return nil, nil, err
		}
		return records, keys, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, nil, fmt.Errorf("failed to decode JSON object: %w", err)
		}
		if data, ok := envelope["data"]; ok && len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[' {
			return decodeRecords(data)
		}
		var record map[string]any
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, nil, fmt.Errorf("failed to decode JSON object: %w", err)
		}
		keys, err := objectKeys(trimmed)
		if err != nil {
			return nil, nil, err
		}
		return []map[string]any{record}, keys, nil
	default:
		return nil, nil, fmt.Errorf("external payload is not a JSON object or array")
	}
}

// firstElement returns the raw bytes of the first element of a JSON
// array.
func firstElement(arr []byte) []byte {
	var elems []json.RawMessage
	if err := json.Unmarshal(arr, &elems); err != nil || len(elems) == 0 {
		return nil
	}
	return elems[0]
}

// objectKeys returns an object's keys in document order via the token
// stream.
func objectKeys(obj []byte) ([]string, error) {
	if len(obj) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(obj))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("record is not a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in record", tok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
	}
	return keys, nil
}

// skipValue consumes one JSON value from the decoder.
func skipValue(dec *json.Decoder) error {
	var v json.RawMessage
	return dec.Decode(&v)
}
