// Package app provides application initialization and dependency injection.
//
// App is the container that wires the pipeline together: configuration,
// database pool, Genkit embedder, vector store, content connectors, the
// indexer and the retriever. Construct with Setup, release with Close.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/index"
	"github.com/tessera-ai/tessera/internal/retrieve"
	"github.com/tessera-ai/tessera/internal/vecstore"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit    *genkit.Genkit
	DBPool    *pgxpool.Pool
	Store     *vecstore.Store
	Indexer   *index.Indexer
	Retriever *retrieve.Retriever

	// Lifecycle
	otelCleanup func()
	dbCleanup   func()
}

// Close gracefully shuts down all resources. Safe to call on a partially
// initialized App (Setup calls it on its own failure paths).
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down")
	}

	if a.dbCleanup != nil {
		a.dbCleanup()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}
