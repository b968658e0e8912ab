package retrieval

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/modmuse/core/pipeline"
	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/metrics"
	"github.com/siherrmann/modmuse/model"
	"golang.org/x/sync/errgroup"
)

// TxRunner runs a unit of work in one transaction, *helper.Database implements it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// GameStore looks up target games
type GameStore interface {
	SelectGame(ctx context.Context, id int64) (*model.Game, error)
}

// CatalogStore provides the candidate searches over mods
type CatalogStore interface {
	SelectModsBySimilarity(ctx context.Context, gameID int64, embedding []float32, limit int) ([]*model.Mod, error)
	SelectModsByTagNames(ctx context.Context, gameID int64, tagNames []string) ([]*model.Mod, error)
	SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error)
}

// PromptStore persists prompts
type PromptStore interface {
	InsertPrompt(ctx context.Context, q helper.Querier, prompt *model.Prompt) error
	SelectPrompt(ctx context.Context, id int64) (*model.Prompt, error)
}

// RecommendationStore persists recommendations
type RecommendationStore interface {
	InsertRecommendation(ctx context.Context, q helper.Querier, recommendation *model.Recommendation) error
	SelectRecommendationsByPrompt(ctx context.Context, promptID int64) ([]*model.Recommendation, error)
}

// DefaultTopK is the number of semantic candidates per request.
const DefaultTopK = 8

// Engine turns prompts into persisted, ranked mod recommendations
type Engine struct {
	db              TxRunner
	games           GameStore
	mods            CatalogStore
	prompts         PromptStore
	recommendations RecommendationStore
	pipeline        *pipeline.Pipeline
	topK            int
	logger          *slog.Logger
	now             func() time.Time
}

// NewEngine creates a new recommendation engine.
// A topK below 1 falls back to DefaultTopK, a nil logger to slog.Default().
func NewEngine(
	db TxRunner,
	games GameStore,
	mods CatalogStore,
	prompts PromptStore,
	recommendations RecommendationStore,
	p *pipeline.Pipeline,
	topK int,
	logger *slog.Logger,
) *Engine {
	if topK < 1 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		db:              db,
		games:           games,
		mods:            mods,
		prompts:         prompts,
		recommendations: recommendations,
		pipeline:        p,
		topK:            topK,
		logger:          logger,
		now:             time.Now,
	}
}

// Generate understands the prompt, searches the catalog of the game semantically and by tags,
// merges both result sets semantic first and stores the prompt with its ranked recommendations
// in a single transaction.
//
// A failed keyword extraction or embedding degrades its branch to empty. If neither keywords
// nor an embedding are available the request fails with an UnderstandingError and nothing is stored.
func (e *Engine) Generate(ctx context.Context, promptText string, gameID int64) (result *model.RecommendationResult, err error) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := e.logger.With(slog.String("request_id", requestID), slog.Int64("game_id", gameID))

	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
		metrics.RecommendationsTotal.WithLabelValues(outcome(err)).Inc()
	}()

	err = e.validate(ctx, promptText, gameID)
	if err != nil {
		return nil, err
	}

	understanding := e.pipeline.Understand(ctx, promptText)
	if understanding.KeywordErr != nil {
		metrics.DegradedBranches.WithLabelValues("keyword").Inc()
		logger.Warn("Keyword extraction failed, continuing without keyword branch", slog.String("error", understanding.KeywordErr.Error()))
	}
	if understanding.EmbeddingErr != nil {
		metrics.DegradedBranches.WithLabelValues("semantic").Inc()
		logger.Warn("Embedding failed, continuing without semantic branch", slog.String("error", understanding.EmbeddingErr.Error()))
	}
	if !understanding.HasKeywords() && !understanding.HasEmbedding() {
		return nil, &pipeline.UnderstandingError{
			Op:  "understand prompt",
			Err: errors.Join(errors.New("neither keywords nor embedding available"), understanding.KeywordErr, understanding.EmbeddingErr),
		}
	}

	keywords := model.Keywords(understanding.Keywords)
	if keywords == nil {
		keywords = model.Keywords{}
	}

	prompt := &model.Prompt{
		UserPrompt:        promptText,
		GameID:            gameID,
		CreatedAt:         e.now().UTC(),
		ExtractedKeywords: keywords,
		ModelVersion:      e.pipeline.ModelVersion,
		Embedding:         understanding.Embedding,
	}

	var recommendations []*model.Recommendation
	err = e.db.RunInTx(ctx, func(tx *sql.Tx) error {
		err := e.prompts.InsertPrompt(ctx, tx, prompt)
		if err != nil {
			return &StoreError{Op: "insert prompt", Err: err}
		}

		candidates, err := e.candidates(ctx, gameID, understanding)
		if err != nil {
			return err
		}

		recommendations = rankCandidates(prompt.ID, keywords, candidates)
		for _, recommendation := range recommendations {
			err := e.recommendations.InsertRecommendation(ctx, tx, recommendation)
			if err != nil {
				return &StoreError{Op: "insert recommendation", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		var storeErr *StoreError
		if !errors.As(err, &storeErr) {
			err = &StoreError{Op: "commit", Err: err}
		}
		logger.Error("Recommendation transaction rolled back", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info(
		"Generated recommendations",
		slog.Int64("prompt_id", prompt.ID),
		slog.Int("count", len(recommendations)),
		slog.Any("keywords", []string(keywords)),
		slog.Bool("semantic", understanding.HasEmbedding()),
	)

	return &model.RecommendationResult{
		Prompt:          prompt,
		Recommendations: recommendations,
	}, nil
}

func (e *Engine) validate(ctx context.Context, promptText string, gameID int64) error {
	if strings.TrimSpace(promptText) == "" {
		return &ValidationError{Field: "user_prompt", Message: "must not be empty"}
	}
	if gameID <= 0 {
		return &ValidationError{Field: "game_id", Message: "must be positive"}
	}

	_, err := e.games.SelectGame(ctx, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return &ValidationError{Field: "game_id", Message: "unknown game"}
	} else if err != nil {
		return &StoreError{Op: "select game", Err: err}
	}
	return nil
}

// candidates runs the semantic and keyword searches concurrently on the pool
// and merges their results.
func (e *Engine) candidates(ctx context.Context, gameID int64, understanding *pipeline.Understanding) ([]*model.Mod, error) {
	var semantic, keyword []*model.Mod

	g, gctx := errgroup.WithContext(ctx)
	if understanding.HasEmbedding() {
		g.Go(func() error {
			mods, err := e.mods.SelectModsBySimilarity(gctx, gameID, understanding.Embedding, e.topK)
			if err != nil {
				return &StoreError{Op: "semantic search", Err: err}
			}
			semantic = mods
			return nil
		})
	}
	if understanding.HasKeywords() {
		g.Go(func() error {
			mods, err := e.mods.SelectModsByTagNames(gctx, gameID, understanding.Keywords)
			if err != nil {
				return &StoreError{Op: "keyword search", Err: err}
			}
			keyword = mods
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeCandidates(semantic, keyword)

	metrics.RecommendationCandidates.WithLabelValues("semantic").Observe(float64(len(semantic)))
	metrics.RecommendationCandidates.WithLabelValues("keyword").Observe(float64(len(keyword)))
	metrics.RecommendationCandidates.WithLabelValues("merged").Observe(float64(len(merged)))

	return merged, nil
}

// Result reads a stored prompt with its recommendations in rank order, mods resolved.
func (e *Engine) Result(ctx context.Context, promptID int64) (*model.RecommendationResult, error) {
	prompt, err := e.prompts.SelectPrompt(ctx, promptID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromptNotFound
	} else if err != nil {
		return nil, &StoreError{Op: "select prompt", Err: err}
	}

	recommendations, err := e.recommendations.SelectRecommendationsByPrompt(ctx, promptID)
	if err != nil {
		return nil, &StoreError{Op: "select recommendations", Err: err}
	}

	modIDs := make([]int64, len(recommendations))
	for i, recommendation := range recommendations {
		modIDs[i] = recommendation.ModID
	}
	mods, err := e.mods.SelectModsByIDs(ctx, modIDs)
	if err != nil {
		return nil, &StoreError{Op: "select mods", Err: err}
	}

	modsByID := make(map[int64]*model.Mod, len(mods))
	for _, mod := range mods {
		modsByID[mod.ID] = mod
	}
	for _, recommendation := range recommendations {
		recommendation.Mod = modsByID[recommendation.ModID]
	}

	return &model.RecommendationResult{
		Prompt:          prompt,
		Recommendations: recommendations,
	}, nil
}

func outcome(err error) string {
	var validationErr *ValidationError
	var understandingErr *pipeline.UnderstandingError
	var storeErr *StoreError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &understandingErr):
		return "understanding_error"
	case errors.As(err, &storeErr):
		return "store_error"
	default:
		return "error"
	}
}
