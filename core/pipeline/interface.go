package pipeline

import (
	"context"
	"errors"
	"sync"
)

// KeywordFunc extracts short keyword tags from a prompt
type KeywordFunc func(ctx context.Context, text string) ([]string, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

var (
	ErrNoKeywordExtractor = errors.New("no keyword extractor configured")
	ErrNoEmbedder         = errors.New("no embedder configured")
)

// Pipeline combines keyword extraction and embedding.
// ModelVersion is recorded on every prompt understood by this pipeline.
type Pipeline struct {
	KeywordExtractor KeywordFunc
	Embedder         EmbedFunc
	ModelVersion     string
}

// NewPipeline creates a new understanding pipeline
func NewPipeline(keywordExtractor KeywordFunc, embedder EmbedFunc, modelVersion string) *Pipeline {
	return &Pipeline{
		KeywordExtractor: keywordExtractor,
		Embedder:         embedder,
		ModelVersion:     modelVersion,
	}
}

// Understanding holds the outcome of both understanding calls.
// A failed call leaves its value empty and sets its error.
type Understanding struct {
	Keywords     []string
	Embedding    []float32
	KeywordErr   error
	EmbeddingErr error
}

// HasKeywords reports whether keyword extraction produced at least one keyword.
func (u *Understanding) HasKeywords() bool {
	return len(u.Keywords) > 0
}

// HasEmbedding reports whether the embedding call succeeded.
func (u *Understanding) HasEmbedding() bool {
	return len(u.Embedding) > 0
}

// Understand runs keyword extraction and embedding concurrently and waits for both.
// It never fails as a whole, the caller decides which partial result is usable.
func (p *Pipeline) Understand(ctx context.Context, text string) *Understanding {
	understanding := &Understanding{}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if p.KeywordExtractor == nil {
			understanding.KeywordErr = ErrNoKeywordExtractor
			return
		}
		keywords, err := p.KeywordExtractor(ctx, text)
		if err != nil {
			understanding.KeywordErr = err
			return
		}
		understanding.Keywords = keywords
	}()

	go func() {
		defer wg.Done()
		if p.Embedder == nil {
			understanding.EmbeddingErr = ErrNoEmbedder
			return
		}
		embedding, err := p.Embedder(ctx, text)
		if err != nil {
			understanding.EmbeddingErr = err
			return
		}
		understanding.Embedding = embedding
	}()

	wg.Wait()

	return understanding
}
