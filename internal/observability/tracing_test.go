package observability

import (
	"context"
	"testing"

	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/testutil"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.ObservabilityConfig{}, testutil.NopLogger())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if shutdown == nil {
		t.Fatal("Setup() shutdown func is nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
