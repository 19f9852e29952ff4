package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/careops-labs/careboard/internal/result"
	"github.com/careops-labs/careboard/pkg/core"
)

// maxExternalBody caps how much of an external response is read.
const maxExternalBody = 16 << 20 // 16 MiB

// executeExternal issues the widget's HTTP call with global filters
// merged per the endpoint descriptor. Any transport failure, timeout or
// non-2xx status is a normal error result, never a raised fault.
func (d *Dispatcher) executeExternal(ctx context.Context, widget core.WidgetDefinition, filters core.GlobalFilterSet) core.ExecutionResult {
	ep := widget.External
	if ep == nil || ep.URL == "" {
		return core.ErrorResult("external widget has no endpoint")
	}

	req, err := d.buildExternalRequest(ctx, ep, filters)
	if err != nil {
		return core.ErrorResult("external call: %v", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return core.ErrorResult("external call failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExternalBody))
	if err != nil {
		return core.ErrorResult("external call: reading response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.ErrorResult("external call returned %s", resp.Status)
	}

	res, err := result.FromJSON(body)
	if err != nil {
		return core.ErrorResult("external call: %v", err)
	}
	return res
}

// buildExternalRequest merges filters into the URL query string or a
// JSON body, per the endpoint's filter mode.
func (d *Dispatcher) buildExternalRequest(ctx context.Context, ep *core.ExternalEndpoint, filters core.GlobalFilterSet) (*http.Request, error) {
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(ep.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}

	var body io.Reader
	switch ep.FilterMode {
	case "body":
		payload := make(map[string]any, len(filters))
		for _, f := range filters {
			payload[f.Key] = f.Value
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding filter body: %w", err)
		}
		body = bytes.NewReader(encoded)
	default: // "query" and unset
		q := target.Query()
		for _, f := range filters {
			q.Set(f.Key, fmt.Sprint(f.Value))
		}
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range ep.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
