package app

import (
	"testing"

	"github.com/tessera-ai/tessera/internal/testutil"
)

func TestCloseOnPartialInit(t *testing.T) {
	// Setup calls Close on its own failure paths, so a half-built App with
	// nil cleanups must close without panicking.
	a := &App{Logger: testutil.NopLogger()}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on partial App = %v, want nil", err)
	}

	var zero App
	if err := zero.Close(); err != nil {
		t.Errorf("Close() on zero App = %v, want nil", err)
	}
}

func TestCloseRunsCleanups(t *testing.T) {
	var order []string
	a := &App{
		Logger:      testutil.NopLogger(),
		dbCleanup:   func() { order = append(order, "db") },
		otelCleanup: func() { order = append(order, "otel") },
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}
	if len(order) != 2 || order[0] != "db" || order[1] != "otel" {
		t.Errorf("cleanup order = %v, want [db otel]", order)
	}
}
