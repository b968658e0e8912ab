package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
	"github.com/siherrmann/modmuse/sql"
)

// RecommendationsDBHandlerFunctions defines the interface for Recommendations database operations.
type RecommendationsDBHandlerFunctions interface {
	InsertRecommendation(ctx context.Context, q helper.Querier, recommendation *model.Recommendation) error
	SelectRecommendation(ctx context.Context, id int64) (*model.Recommendation, error)
	SelectRecommendationsByPrompt(ctx context.Context, promptID int64) ([]*model.Recommendation, error)
}

// RecommendationsDBHandler handles recommendation database operations.
// Rows are append only and removed only together with their prompt.
type RecommendationsDBHandler struct {
	db *helper.Database
}

// NewRecommendationsDBHandler creates a new recommendations database handler.
// The prompt and mod tables have to exist.
func NewRecommendationsDBHandler(db *helper.Database, force bool) (*RecommendationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	recommendationsDbHandler := &RecommendationsDBHandler{
		db: db,
	}

	err := sql.LoadRecommendationsSql(recommendationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load recommendations sql", err)
	}

	err = recommendationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RecommendationsDBHandler")

	return recommendationsDbHandler, nil
}

// CreateTable creates the 'recommendation' table and its immutability trigger.
func (h *RecommendationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_recommendations();`)
	if err != nil {
		log.Panicf("error initializing recommendation table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table recommendation")

	return nil
}

// InsertRecommendation inserts a recommendation using q, which is usually the request transaction.
func (h *RecommendationsDBHandler) InsertRecommendation(ctx context.Context, q helper.Querier, recommendation *model.Recommendation) error {
	if q == nil {
		q = h.db.Instance
	}
	if recommendation.RankOrder < 1 {
		return helper.NewError("rank validation", fmt.Errorf("rank order must be positive, got %d", recommendation.RankOrder))
	}

	row := q.QueryRowContext(
		ctx,
		`SELECT * FROM insert_recommendation($1, $2, $3, $4)`,
		recommendation.PromptID,
		recommendation.ModID,
		recommendation.RelevanceScore,
		recommendation.RankOrder,
	)

	err := row.Scan(
		&recommendation.ID,
		&recommendation.PromptID,
		&recommendation.ModID,
		&recommendation.RelevanceScore,
		&recommendation.RankOrder,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRecommendation retrieves a recommendation by ID. Mod is not resolved.
func (h *RecommendationsDBHandler) SelectRecommendation(ctx context.Context, id int64) (*model.Recommendation, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_recommendation($1)`, id)

	recommendation := &model.Recommendation{}
	err := row.Scan(
		&recommendation.ID,
		&recommendation.PromptID,
		&recommendation.ModID,
		&recommendation.RelevanceScore,
		&recommendation.RankOrder,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return recommendation, nil
}

// SelectRecommendationsByPrompt returns the recommendations of a prompt by rank. Mod is not resolved.
func (h *RecommendationsDBHandler) SelectRecommendationsByPrompt(ctx context.Context, promptID int64) ([]*model.Recommendation, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_recommendations_by_prompt($1)`, promptID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	recommendations := []*model.Recommendation{}
	for rows.Next() {
		recommendation := &model.Recommendation{}
		err := rows.Scan(
			&recommendation.ID,
			&recommendation.PromptID,
			&recommendation.ModID,
			&recommendation.RelevanceScore,
			&recommendation.RankOrder,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		recommendations = append(recommendations, recommendation)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return recommendations, nil
}
