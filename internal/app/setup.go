package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tessera-ai/tessera/db"
	"github.com/tessera-ai/tessera/internal/chunk"
	"github.com/tessera-ai/tessera/internal/config"
	"github.com/tessera-ai/tessera/internal/embed"
	"github.com/tessera-ai/tessera/internal/index"
	"github.com/tessera-ai/tessera/internal/log"
	"github.com/tessera-ai/tessera/internal/observability"
	"github.com/tessera-ai/tessera/internal/retrieve"
	"github.com/tessera-ai/tessera/internal/source"
	"github.com/tessera-ai/tessera/internal/source/drive"
	"github.com/tessera-ai/tessera/internal/vecstore"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.New(log.Config{})
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, a)

	pool, dbCleanup, err := provideDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.dbCleanup = dbCleanup
	a.DBPool = pool

	g, embedder, err := provideEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	generator := embed.New(embedder, cfg.EmbedderDimension, logger)

	a.Store = vecstore.New(pool, cfg.EmbedderDimension, logger)
	if err := a.Store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensuring vector store schema: %w", err)
	}

	connectors, err := provideConnectors(ctx, cfg, pool, logger)
	if err != nil {
		return nil, err
	}

	chunker := chunk.New(chunk.Config{
		MaxChunkSize: cfg.MaxChunkSize,
		MinChunkSize: cfg.MinChunkSize,
		Overlap:      cfg.ChunkOverlap,
	})

	a.Indexer = index.New(a.Store, generator, chunker, connectors, logger)
	a.Retriever = retrieve.New(a.Store, generator, cfg.SimilarityThreshold, logger)

	return a, nil
}

// provideOtelShutdown sets up OTLP tracing before anything creates spans.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, a *App) func() {
	shutdown, err := observability.Setup(ctx, cfg.Observability, a.Logger)
	if err != nil {
		a.Logger.Warn("tracing setup failed", "error", err)
		return func() {}
	}

	//nolint:contextcheck // Independent context: shutdown runs during teardown when parent is canceled
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("shutting down tracer provider", "error", err)
		}
	}
}

// provideDBPool creates a PostgreSQL connection pool and runs migrations.
// Pool is configured with sensible defaults for connection management.
func provideDBPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, func(), error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, pool.Close, nil
}

// provideEmbedder initializes Genkit with the Google AI plugin and looks up
// the configured embedder. GEMINI_API_KEY is read by the plugin directly;
// config validation already checked its presence.
func provideEmbedder(ctx context.Context, cfg *config.Config) (*genkit.Genkit, ai.Embedder, error) {
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, nil, errors.New("initializing genkit with googleai plugin")
	}

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}
	return g, embedder, nil
}

// provideConnectors builds the content source list: the four relational
// connectors always, the Drive connector only when configured.
func provideConnectors(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger log.Logger) ([]index.Connector, error) {
	querier := source.NewPGContent(pool)

	connectors := []index.Connector{
		source.NewDocumentation(querier, logger),
		source.NewCMS(querier, logger),
		source.NewForum(querier, logger),
		source.NewProducts(querier, logger),
	}

	if cfg.DriveEnabled() {
		dc, err := drive.New(ctx, cfg.DriveCredentialsFile, cfg.DriveFolderID, logger)
		if err != nil {
			return nil, fmt.Errorf("creating drive connector: %w", err)
		}
		connectors = append(connectors, dc)
	}

	return connectors, nil
}
