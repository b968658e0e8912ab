package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/modmuse/helper"
)

const (
	// DefaultEmbeddingDim is the output dimension of DefaultEmbedder.
	DefaultEmbeddingDim      = 384
	// DefaultEmbeddingModel is the Hugging Face repository of DefaultEmbedder.
	DefaultEmbeddingModel    = "sentence-transformers/all-MiniLM-L6-v2"
	// DefaultEmbeddingOnnxFile picks the plain export, the repository ships several onnx files.
	DefaultEmbeddingOnnxFile = "onnx/model.onnx"
)

// DefaultEmbedder creates an embedder using a local sentence transformer model
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings
func DefaultEmbedder() (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(DefaultEmbeddingModel, DefaultEmbeddingOnnxFile)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	// The Go backend pipeline is not safe for concurrent runs.
	var mu sync.Mutex

	return func(ctx context.Context, text string) ([]float32, error) {
		if err := ctx.Err(); err != nil {
			return nil, &UnderstandingError{Op: "embed text", Err: err}
		}

		mu.Lock()
		result, err := sentencePipeline.RunPipeline([]string{text})
		mu.Unlock()
		if err != nil {
			return nil, &UnderstandingError{Op: "embed text", Err: fmt.Errorf("failed to generate embedding: %w", err)}
		}

		if len(result.Embeddings) == 0 {
			return nil, &UnderstandingError{Op: "embed text", Err: fmt.Errorf("no embedding generated")}
		}

		embedding := result.Embeddings[0]
		if len(embedding) != DefaultEmbeddingDim {
			return nil, &UnderstandingError{Op: "embed text", Err: fmt.Errorf("expected %d dimensions, got %d", DefaultEmbeddingDim, len(embedding))}
		}
		return embedding, nil
	}, nil
}
