// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.unikb/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Corpus: document root, chunk size/overlap
//   - Retrieval: top-K, embedder model
//   - Generation: model, temperature, max output tokens
//   - Index: persisted index directory
//   - Server: listen address
//
// GEMINI_API_KEY is read directly by Genkit, not via Viper. Its absence
// is not a configuration error: the engine degrades to keyword-only
// (simple) mode instead.
package config

import (
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

	// ErrInvalidCorpusDir indicates the corpus directory is invalid.
	ErrInvalidCorpusDir = errors.New("invalid corpus directory")

	// ErrInvalidChunking indicates chunk size/overlap are inconsistent.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidModelName indicates the generation model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max output tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max output tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidIndexDir indicates the index directory is invalid.
	ErrInvalidIndexDir = errors.New("invalid index directory")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	DefaultEmbedderModel = "text-embedding-004"

	// DefaultGenerationModel is the default Gemini generation model.
	DefaultGenerationModel = "gemini-1.5-flash"

	// DefaultChunkSize is the sliding-window size for passage splitting,
	// in characters.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the character overlap between consecutive
	// passages.
	DefaultChunkOverlap = 50

	// DefaultTopK is the default number of passages retrieved per query.
	DefaultTopK = 3
)

// Config stores application configuration.
type Config struct {
	// Corpus configuration
	CorpusDir    string `mapstructure:"corpus_dir" json:"corpus_dir"`
	ChunkSize    int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`

	// Retrieval configuration
	TopK          int    `mapstructure:"top_k" json:"top_k"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Generation configuration
	ModelName       string  `mapstructure:"model_name" json:"model_name"`
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" json:"max_output_tokens"`

	// Index persistence
	IndexDir string `mapstructure:"index_dir" json:"index_dir"`

	// Corpus watching (serve mode)
	WatchCorpus bool `mapstructure:"watch_corpus" json:"watch_corpus"`

	// HTTP server
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`

	// Observability (optional OTLP trace export)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".unikb")

	// Ensure directory exists (0750 for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v, configDir)
	bindEnvVariables(v)

	// Read configuration file (if exists)
	if err := v.ReadInConfig(); err != nil {
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
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail-fast validation
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	// Corpus defaults
	v.SetDefault("corpus_dir", "knowledge_base")
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)

	// Retrieval defaults
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	// Generation defaults (low temperature for grounded answers)
	v.SetDefault("model_name", DefaultGenerationModel)
	v.SetDefault("temperature", 0.1)
	v.SetDefault("max_output_tokens", 512)

	// Index persistence defaults
	v.SetDefault("index_dir", filepath.Join(configDir, "index"))

	// Serve defaults
	v.SetDefault("watch_corpus", true)
	v.SetDefault("listen_addr", "127.0.0.1:5001")

	// Observability defaults (empty endpoint = tracing disabled)
	v.SetDefault("otlp_endpoint", "")
	v.SetDefault("service_name", "unikb")
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys can't fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("corpus_dir", "UNIKB_CORPUS_DIR")
	mustBind("index_dir", "UNIKB_INDEX_DIR")
	mustBind("listen_addr", "UNIKB_LISTEN_ADDR")
	mustBind("model_name", "UNIKB_MODEL_NAME")
	mustBind("embedder_model", "UNIKB_EMBEDDER_MODEL")
	mustBind("otlp_endpoint", "UNIKB_OTLP_ENDPOINT")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
	// Its presence decides advanced vs. simple mode at setup time.
}

// HasGenerationCredentials reports whether the Gemini API key is present.
// This gates advanced mode; it is deliberately not part of Validate()
// because a missing key degrades the engine instead of failing startup.
func HasGenerationCredentials() bool {
	return os.Getenv("GEMINI_API_KEY") != ""
}
