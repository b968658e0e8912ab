package catalog

import (
	"context"
	"log/slog"

	"github.com/siherrmann/modmuse/core/pipeline"
	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/metrics"
)

// BackfillResult counts the mods a backfill run touched.
type BackfillResult struct {
	Embedded int
	Skipped  int
	Failed   int
}

// Backfiller computes embeddings for mods that do not have one yet.
type Backfiller struct {
	games  GameStore
	mods   ModStore
	embed  pipeline.EmbedFunc
	logger *slog.Logger
}

// NewBackfiller creates a backfiller embedding with embed.
func NewBackfiller(games GameStore, mods ModStore, embed pipeline.EmbedFunc, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{
		games:  games,
		mods:   mods,
		embed:  embed,
		logger: logger,
	}
}

// Run embeds "name: description" of every mod without an embedding.
// A failing mod is logged and left for the next run. Only listing the catalog
// or a cancelled context stop the run with an error.
func (b *Backfiller) Run(ctx context.Context) (*BackfillResult, error) {
	if b.embed == nil {
		return nil, helper.NewError("backfill", pipeline.ErrNoEmbedder)
	}

	games, err := b.games.SelectAllGames(ctx)
	if err != nil {
		return nil, helper.NewError("select games", err)
	}

	result := &BackfillResult{}
	for _, game := range games {
		mods, err := b.mods.SelectModsByGame(ctx, game.ID)
		if err != nil {
			return result, helper.NewError("select mods", err)
		}

		for _, mod := range mods {
			if err := ctx.Err(); err != nil {
				return result, helper.NewError("backfill", err)
			}

			if mod.HasEmbedding() {
				result.Skipped++
				metrics.BackfillMods.WithLabelValues("skipped").Inc()
				continue
			}

			embedding, err := b.embed(ctx, mod.EmbeddingText())
			if err == nil {
				_, err = b.mods.UpdateModEmbedding(ctx, mod.ID, embedding)
			}
			if err != nil {
				result.Failed++
				metrics.BackfillMods.WithLabelValues("failed").Inc()
				b.logger.Warn("Failed to embed mod", slog.Int64("mod_id", mod.ID), slog.String("name", mod.Name), slog.String("error", err.Error()))
				continue
			}

			result.Embedded++
			metrics.BackfillMods.WithLabelValues("embedded").Inc()
			b.logger.Debug("Embedded mod", slog.Int64("mod_id", mod.ID), slog.String("name", mod.Name))
		}
	}

	b.logger.Info("Backfill finished", slog.Int("embedded", result.Embedded), slog.Int("skipped", result.Skipped), slog.Int("failed", result.Failed))

	return result, nil
}
