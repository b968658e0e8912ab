package helper

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderLocal  = "local"
)

// ServiceConfiguration holds everything outside of the database connection.
type ServiceConfiguration struct {
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	KeywordModel      string
	EmbeddingModel    string
	EmbeddingProvider string
	EmbeddingDim      int
	DefaultGameID     int64
	TopK              int
	HTTPAddress       string
	RequestTimeout    time.Duration
	MaxRetries        uint64
}

// DefaultServiceConfiguration returns the configuration used when no environment is set.
func DefaultServiceConfiguration() *ServiceConfiguration {
	return &ServiceConfiguration{
		KeywordModel:      "gpt-4o-mini",
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingProvider: EmbeddingProviderOpenAI,
		EmbeddingDim:      1536,
		DefaultGameID:     1,
		TopK:              8,
		HTTPAddress:       ":8000",
		RequestTimeout:    30 * time.Second,
		MaxRetries:        3,
	}
}

// NewServiceConfiguration reads and validates the service configuration.
func NewServiceConfiguration() (*ServiceConfiguration, error) {
	config, err := LoadServiceConfiguration()
	if err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// LoadServiceConfiguration reads MODMUSE_* and OPENAI_* variables on top of the defaults
// without validating the result, so callers can apply further overrides first.
func LoadServiceConfiguration() (*ServiceConfiguration, error) {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return nil, NewError("load .env", err)
	}

	config := DefaultServiceConfiguration()
	config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	config.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")

	if v := os.Getenv("MODMUSE_KEYWORD_MODEL"); v != "" {
		config.KeywordModel = v
	}
	if v := os.Getenv("MODMUSE_EMBEDDING_MODEL"); v != "" {
		config.EmbeddingModel = v
	}
	if v := os.Getenv("MODMUSE_EMBEDDING_PROVIDER"); v != "" {
		config.EmbeddingProvider = v
	}
	if v := os.Getenv("MODMUSE_HTTP_ADDRESS"); v != "" {
		config.HTTPAddress = v
	}

	config.EmbeddingDim, err = intFromEnv("MODMUSE_EMBEDDING_DIM", config.EmbeddingDim)
	if err != nil {
		return nil, err
	}
	config.TopK, err = intFromEnv("MODMUSE_TOP_K", config.TopK)
	if err != nil {
		return nil, err
	}
	gameID, err := intFromEnv("MODMUSE_DEFAULT_GAME_ID", int(config.DefaultGameID))
	if err != nil {
		return nil, err
	}
	config.DefaultGameID = int64(gameID)
	retries, err := intFromEnv("MODMUSE_MAX_RETRIES", int(config.MaxRetries))
	if err != nil {
		return nil, err
	}
	config.MaxRetries = uint64(retries)

	if v := os.Getenv("MODMUSE_REQUEST_TIMEOUT"); v != "" {
		config.RequestTimeout, err = time.ParseDuration(v)
		if err != nil {
			return nil, NewError("parse MODMUSE_REQUEST_TIMEOUT", err)
		}
	}

	return config, nil
}

// Validate checks the combination of provider and dimension.
func (c *ServiceConfiguration) Validate() error {
	switch c.EmbeddingProvider {
	case EmbeddingProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return NewError("validate configuration", fmt.Errorf("OPENAI_API_KEY is required for the %s provider", c.EmbeddingProvider))
		}
	case EmbeddingProviderLocal:
		if c.EmbeddingDim != 384 {
			return NewError("validate configuration", fmt.Errorf("local embedder produces 384 dimensions, got %d", c.EmbeddingDim))
		}
	default:
		return NewError("validate configuration", fmt.Errorf("unknown embedding provider: %s", c.EmbeddingProvider))
	}

	if c.EmbeddingDim <= 0 {
		return NewError("validate configuration", fmt.Errorf("embedding dimension must be positive"))
	}
	if c.TopK <= 0 {
		return NewError("validate configuration", fmt.Errorf("top k must be positive"))
	}
	if c.DefaultGameID <= 0 {
		return NewError("validate configuration", fmt.Errorf("default game id must be positive"))
	}

	return nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, NewError(fmt.Sprintf("parse %s", key), err)
	}
	return i, nil
}
