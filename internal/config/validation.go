package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. API key validation (required for embedding)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 2. Embedding validation
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.EmbedderDimension < 1 || c.EmbedderDimension > 4096 {
		return fmt.Errorf("%w: must be between 1 and 4096, got %d",
			ErrInvalidEmbedderDimension, c.EmbedderDimension)
	}

	// 3. Chunking validation. The window must keep
	// min_chunk_size < max_chunk_size - chunk_overlap or boundary snapping
	// could move a chunk end before the next chunk's start.
	if c.MaxChunkSize < 1 {
		return fmt.Errorf("%w: max_chunk_size must be positive, got %d",
			ErrInvalidChunking, c.MaxChunkSize)
	}
	if c.MinChunkSize < 1 {
		return fmt.Errorf("%w: min_chunk_size must be positive, got %d",
			ErrInvalidChunking, c.MinChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap cannot be negative, got %d",
			ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.MinChunkSize >= c.MaxChunkSize-c.ChunkOverlap {
		return fmt.Errorf("%w: min_chunk_size (%d) must be less than max_chunk_size - chunk_overlap (%d)",
			ErrInvalidChunking, c.MinChunkSize, c.MaxChunkSize-c.ChunkOverlap)
	}

	// 4. Retrieval validation
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: must be between 0.0 and 1.0, got %.2f",
			ErrInvalidThreshold, c.SimilarityThreshold)
	}

	// 5. PostgreSQL validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}

	// Warn if using the default dev password (but don't block - user might be in dev)
	if c.PostgresPassword == "tessera_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	if len(c.PostgresPassword) < 8 {
		return fmt.Errorf("%w: postgres_password must be at least 8 characters (got %d)",
			ErrInvalidPostgresPassword, len(c.PostgresPassword))
	}

	// Modern SSL modes only - exclude deprecated allow/prefer (MITM vulnerable)
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if c.PostgresSSLMode == "" {
		return fmt.Errorf("%w: postgres_ssl_mode is empty (should have default from setDefaults)",
			ErrInvalidPostgresSSLMode)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	// 6. Drive validation: folder id and credentials come as a pair
	if c.DriveFolderID != "" && c.DriveCredentialsFile == "" {
		return fmt.Errorf("%w: drive_folder_id is set but drive_credentials_file is empty",
			ErrInvalidDrive)
	}

	return nil
}

// DriveEnabled reports whether the Drive connector should be wired in.
func (c *Config) DriveEnabled() bool {
	return c.DriveFolderID != ""
}
