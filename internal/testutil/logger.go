package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards everything. Tests use it so
// assertions stay readable without log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
