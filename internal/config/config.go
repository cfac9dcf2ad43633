// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.tessera/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Storage: PostgreSQL connection (see storage.go)
//   - Embedding: Embedder model and vector dimension
//   - Chunking: Window sizes for the sliding-window chunker
//   - Retrieval: Result count and similarity floor
//   - Drive: Google Drive folder sync credentials
//   - Observability: OTLP trace export (see observability.go)
//
// Security: Sensitive data (passwords) are never logged; config directory
// uses 0750 permissions.
// Validation: Range checks in validation.go with sentinel errors for
// errors.Is() checking; Load fails fast on any invalid value.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbedderDimension indicates the embedder dimension is out of range.
	ErrInvalidEmbedderDimension = errors.New("invalid embedder dimension")

	// ErrInvalidChunking indicates the chunk window sizes are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval result count is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidThreshold indicates the similarity threshold is out of range.
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresPassword indicates the PostgreSQL password is invalid.
	ErrInvalidPostgresPassword = errors.New("invalid PostgreSQL password")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidDrive indicates the Drive sync settings are incomplete.
	ErrInvalidDrive = errors.New("invalid drive configuration")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality (Matryoshka Representation
	// Learning). The pgvector schema is created with DefaultEmbedderDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbedderDimension is the vector dimension the schema uses.
	DefaultEmbedderDimension = 768
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// Storage configuration (see storage.go for documentation)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Embedding configuration
	EmbedderModel     string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbedderDimension int    `mapstructure:"embedder_dimension" json:"embedder_dimension"`

	// Chunking configuration
	MaxChunkSize int `mapstructure:"max_chunk_size" json:"max_chunk_size"`
	MinChunkSize int `mapstructure:"min_chunk_size" json:"min_chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	TopK                int     `mapstructure:"top_k" json:"top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" json:"similarity_threshold"`

	// Google Drive sync (optional; the drive connector is skipped when
	// DriveFolderID is empty)
	DriveFolderID        string `mapstructure:"drive_folder_id" json:"drive_folder_id"`
	DriveCredentialsFile string `mapstructure:"drive_credentials_file" json:"drive_credentials_file"`

	// Observability configuration (see observability.go for type definition)
	Observability ObservabilityConfig `mapstructure:"observability" json:"observability"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.tessera/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".tessera")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Parse DATABASE_URL if set (highest priority for PostgreSQL config)
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "tessera")
	viper.SetDefault("postgres_password", "tessera_dev_password")
	viper.SetDefault("postgres_db_name", "tessera")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Embedding defaults
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedder_dimension", DefaultEmbedderDimension)

	// Chunking defaults
	viper.SetDefault("max_chunk_size", 1000)
	viper.SetDefault("min_chunk_size", 100)
	viper.SetDefault("chunk_overlap", 200)

	// Retrieval defaults
	viper.SetDefault("top_k", 5)
	viper.SetDefault("similarity_threshold", 0.5)

	// Observability defaults (export disabled until an endpoint is set)
	viper.SetDefault("observability.otlp_endpoint", "")
	viper.SetDefault("observability.environment", "dev")
	viper.SetDefault("observability.service_name", "tessera")
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper; validation
// checks its presence in cfg.Validate(). DATABASE_URL is handled separately
// in parseDatabaseURL.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("drive_folder_id", "TESSERA_DRIVE_FOLDER_ID")
	mustBind("drive_credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")
	mustBind("observability.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	mustBind("observability.environment", "TESSERA_ENVIRONMENT")
	mustBind("embedder_model", "TESSERA_EMBEDDER_MODEL")
	mustBind("embedder_dimension", "TESSERA_EMBEDDER_DIMENSION")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: For secrets <=8 chars, fully masks to prevent substring attacks.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
