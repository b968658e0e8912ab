package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/siherrmann/modmuse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationsNewRecommendationsDBHandler(t *testing.T) {
	t.Run("Invalid call NewRecommendationsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRecommendationsDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestRecommendations(t *testing.T) {
	h := initHandlers(t)
	ctx := context.Background()
	game := insertTestGame(t, h)

	mods := []*model.Mod{
		insertTestMod(t, h, game.ID, "Frostfall"),
		insertTestMod(t, h, game.ID, "Campfire"),
		insertTestMod(t, h, game.ID, "iNeed"),
	}

	newPrompt := func(t *testing.T) *model.Prompt {
		prompt := &model.Prompt{UserPrompt: "survival", GameID: game.ID, ModelVersion: "gpt-4o-mini"}
		require.NoError(t, h.prompts.InsertPrompt(ctx, nil, prompt))
		return prompt
	}

	t.Run("Insert recommendations and read them back by rank", func(t *testing.T) {
		prompt := newPrompt(t)

		var inserted []*model.Recommendation
		err := h.db.RunInTx(ctx, func(tx *sql.Tx) error {
			for i := len(mods) - 1; i >= 0; i-- {
				rec := &model.Recommendation{
					PromptID:       prompt.ID,
					ModID:          mods[i].ID,
					RelevanceScore: float64(i),
					RankOrder:      i + 1,
				}
				if err := h.recommendations.InsertRecommendation(ctx, tx, rec); err != nil {
					return err
				}
				inserted = append(inserted, rec)
			}
			return nil
		})
		require.NoError(t, err)

		recs, err := h.recommendations.SelectRecommendationsByPrompt(ctx, prompt.ID)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		for i, rec := range recs {
			assert.Equal(t, i+1, rec.RankOrder, "Expected recommendations ordered by rank")
			assert.Equal(t, mods[i].ID, rec.ModID)
		}

		single, err := h.recommendations.SelectRecommendation(ctx, inserted[0].ID)
		require.NoError(t, err)
		assert.Equal(t, inserted[0], single, "Expected the stored recommendation to read back unchanged")
	})

	t.Run("Duplicate rank within a prompt is rejected", func(t *testing.T) {
		prompt := newPrompt(t)
		first := &model.Recommendation{PromptID: prompt.ID, ModID: mods[0].ID, RankOrder: 1}
		require.NoError(t, h.recommendations.InsertRecommendation(ctx, nil, first))

		second := &model.Recommendation{PromptID: prompt.ID, ModID: mods[1].ID, RankOrder: 1}
		assert.Error(t, h.recommendations.InsertRecommendation(ctx, nil, second))
	})

	t.Run("Duplicate mod within a prompt is rejected", func(t *testing.T) {
		prompt := newPrompt(t)
		first := &model.Recommendation{PromptID: prompt.ID, ModID: mods[0].ID, RankOrder: 1}
		require.NoError(t, h.recommendations.InsertRecommendation(ctx, nil, first))

		second := &model.Recommendation{PromptID: prompt.ID, ModID: mods[0].ID, RankOrder: 2}
		assert.Error(t, h.recommendations.InsertRecommendation(ctx, nil, second))
	})

	t.Run("Rank below one is rejected", func(t *testing.T) {
		prompt := newPrompt(t)
		rec := &model.Recommendation{PromptID: prompt.ID, ModID: mods[0].ID, RankOrder: 0}
		err := h.recommendations.InsertRecommendation(ctx, nil, rec)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rank order must be positive")
	})

	t.Run("Update of a recommendation is rejected", func(t *testing.T) {
		prompt := newPrompt(t)
		rec := &model.Recommendation{PromptID: prompt.ID, ModID: mods[0].ID, RelevanceScore: 1, RankOrder: 1}
		require.NoError(t, h.recommendations.InsertRecommendation(ctx, nil, rec))

		_, err := h.db.Instance.ExecContext(ctx, `UPDATE recommendation SET relevance_score = 5 WHERE rec_id = $1`, rec.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "immutable")
	})

	t.Run("Deleting the prompt deletes its recommendations", func(t *testing.T) {
		prompt := newPrompt(t)
		rec := &model.Recommendation{PromptID: prompt.ID, ModID: mods[2].ID, RankOrder: 1}
		require.NoError(t, h.recommendations.InsertRecommendation(ctx, nil, rec))

		require.NoError(t, h.prompts.DeletePrompt(ctx, prompt.ID))

		_, err := h.recommendations.SelectRecommendation(ctx, rec.ID)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}
