package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/siherrmann/modmuse/core/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfiller(t *testing.T) {
	ctx := context.Background()

	t.Run("Every mod without embedding is embedded with name and description", func(t *testing.T) {
		_, store := seededMemCatalog(t)
		var texts []string
		embed := func(ctx context.Context, text string) ([]float32, error) {
			texts = append(texts, text)
			return []float32{1, 0, 0}, nil
		}

		result, err := NewBackfiller(store, store, embed, nil).Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, &BackfillResult{Embedded: 14}, result)
		assert.Contains(t, texts, "Frostfall: Hypothermia survival mechanics")
		for _, mod := range store.mods {
			assert.True(t, mod.HasEmbedding(), "Expected %s to be embedded", mod.Name)
		}
	})

	t.Run("Second run skips embedded mods", func(t *testing.T) {
		_, store := seededMemCatalog(t)
		embed := func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1, 0, 0}, nil
		}
		backfiller := NewBackfiller(store, store, embed, nil)
		_, err := backfiller.Run(ctx)
		require.NoError(t, err)
		updates := store.embedUpdates

		result, err := backfiller.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, &BackfillResult{Skipped: 14}, result)
		assert.Equal(t, updates, store.embedUpdates)
	})

	t.Run("Failing mod is skipped and retried on the next run", func(t *testing.T) {
		_, store := seededMemCatalog(t)
		failing := true
		embed := func(ctx context.Context, text string) ([]float32, error) {
			if failing && strings.HasPrefix(text, "SkyUI") {
				return nil, &pipeline.UnderstandingError{Op: "embed text", Err: errors.New("timeout")}
			}
			return []float32{0, 1, 0}, nil
		}
		backfiller := NewBackfiller(store, store, embed, nil)

		result, err := backfiller.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, &BackfillResult{Embedded: 13, Failed: 1}, result)

		failing = false
		result, err = backfiller.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, &BackfillResult{Embedded: 1, Skipped: 13}, result)
	})

	t.Run("Cancelled context stops the run", func(t *testing.T) {
		_, store := seededMemCatalog(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		embed := func(ctx context.Context, text string) ([]float32, error) {
			return []float32{1}, nil
		}

		_, err := NewBackfiller(store, store, embed, nil).Run(cancelled)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, store.embedUpdates)
	})

	t.Run("Missing embedder fails", func(t *testing.T) {
		_, store := seededMemCatalog(t)
		_, err := NewBackfiller(store, store, nil, nil).Run(ctx)
		assert.ErrorIs(t, err, pipeline.ErrNoEmbedder)
	})
}
