// Package testutil holds shared helpers for spmbatch's tests.
package testutil

import (
	"log/slog"
	"testing"
)

// NewTestLogger returns a slog.Logger routed through t.Log, so component
// logs surface only on failure or under -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}
