package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrNoText is returned when a chat completion carries no text at all.
var ErrNoText = errors.New("could not extract text from response")

// OpenAIConfig configures the OpenAI backed keyword extractor and embedder.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // Optional, e.g. a compatible proxy
	KeywordModel   string
	EmbeddingModel string
	EmbeddingDim   int
	MaxRetries     uint64
	RetryInterval  time.Duration // Initial backoff interval, defaults to 500ms
}

// DefaultOpenAIConfig returns the configuration with gpt-4o-mini and text-embedding-3-small.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		APIKey:         apiKey,
		KeywordModel:   string(openai.ChatModelGPT4oMini),
		EmbeddingModel: string(openai.EmbeddingModelTextEmbedding3Small),
		EmbeddingDim:   1536,
		MaxRetries:     3,
		RetryInterval:  500 * time.Millisecond,
	}
}

func newOpenAIClient(config OpenAIConfig) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0), // Retries are handled by Resilience
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	return openai.NewClient(opts...)
}

func retryInterval(config OpenAIConfig) time.Duration {
	if config.RetryInterval <= 0 {
		return 500 * time.Millisecond
	}
	return config.RetryInterval
}

// NewOpenAIKeywordExtractor creates a keyword extractor using a chat model.
func NewOpenAIKeywordExtractor(config OpenAIConfig) KeywordFunc {
	client := newOpenAIClient(config)
	resilience := NewResilience("openai-keywords", config.MaxRetries, retryInterval(config))

	return func(ctx context.Context, text string) ([]string, error) {
		var raw string
		err := resilience.Do(ctx, func(ctx context.Context) error {
			completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(config.KeywordModel),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.UserMessage(KeywordPrompt(text)),
				},
			})
			if err != nil {
				return err
			}

			if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
				return backoff.Permanent(ErrNoText)
			}
			raw = completion.Choices[0].Message.Content
			return nil
		})
		if err != nil {
			return nil, &UnderstandingError{Op: "extract keywords", Err: err}
		}

		return ParseKeywords(raw), nil
	}
}

// NewOpenAIEmbedder creates an embedder using the OpenAI embeddings endpoint.
// Vectors that do not match config.EmbeddingDim are rejected.
func NewOpenAIEmbedder(config OpenAIConfig) EmbedFunc {
	client := newOpenAIClient(config)
	resilience := NewResilience("openai-embeddings", config.MaxRetries, retryInterval(config))

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(config.EmbeddingModel),
	}
	// Only the text-embedding-3 family accepts a target dimension.
	if strings.HasPrefix(config.EmbeddingModel, "text-embedding-3") && config.EmbeddingDim > 0 {
		params.Dimensions = openai.Int(int64(config.EmbeddingDim))
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		var embedding []float32
		err := resilience.Do(ctx, func(ctx context.Context) error {
			request := params
			request.Input = openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)}

			response, err := client.Embeddings.New(ctx, request)
			if err != nil {
				return err
			}
			if len(response.Data) == 0 {
				return backoff.Permanent(fmt.Errorf("no embedding generated"))
			}

			values := response.Data[0].Embedding
			if config.EmbeddingDim > 0 && len(values) != config.EmbeddingDim {
				return backoff.Permanent(fmt.Errorf("expected %d dimensions, got %d", config.EmbeddingDim, len(values)))
			}

			embedding = make([]float32, len(values))
			for i, v := range values {
				embedding[i] = float32(v)
			}
			return nil
		})
		if err != nil {
			return nil, &UnderstandingError{Op: "embed text", Err: err}
		}

		return embedding, nil
	}
}
