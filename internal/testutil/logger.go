// Package testutil holds shared helpers for careboard package tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a debug-level slog.Logger routed through
// t.Log(), so log lines surface only on failure or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
