package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
	loadSql "github.com/siherrmann/modmuse/sql"
)

// PromptsDBHandlerFunctions defines the interface for Prompts database operations.
type PromptsDBHandlerFunctions interface {
	InsertPrompt(ctx context.Context, q helper.Querier, prompt *model.Prompt) error
	SelectPrompt(ctx context.Context, id int64) (*model.Prompt, error)
	SelectRecentPrompts(ctx context.Context, gameID *int64, limit int) ([]*model.Prompt, error)
	DeletePrompt(ctx context.Context, id int64) error
}

// PromptsDBHandler handles prompt history database operations.
// Prompt rows are append only, updates are rejected by a trigger.
type PromptsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewPromptsDBHandler creates a new prompts database handler.
// The game table has to exist because prompt references it.
func NewPromptsDBHandler(db *helper.Database, embeddingDim int, force bool) (*PromptsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	promptsDbHandler := &PromptsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadPromptsSql(promptsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load prompts sql", err)
	}

	err = promptsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized PromptsDBHandler")

	return promptsDbHandler, nil
}

// CreateTable creates the 'prompt' table and its immutability trigger.
func (h *PromptsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_prompts($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing prompt table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table prompt")

	return nil
}

// InsertPrompt inserts the prompt using q, which is usually the request transaction.
// A nil embedding is stored as NULL. A zero CreatedAt is set by the database.
func (h *PromptsDBHandler) InsertPrompt(ctx context.Context, q helper.Querier, prompt *model.Prompt) error {
	if q == nil {
		q = h.db.Instance
	}

	var embedding interface{}
	if len(prompt.Embedding) > 0 {
		if len(prompt.Embedding) != h.embeddingDim {
			return helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(prompt.Embedding)))
		}
		embedding = pgvector.NewVector(prompt.Embedding)
	}

	var createdAt interface{}
	if !prompt.CreatedAt.IsZero() {
		createdAt = prompt.CreatedAt
	}

	keywords := prompt.ExtractedKeywords
	if keywords == nil {
		keywords = model.Keywords{}
	}

	row := q.QueryRowContext(
		ctx,
		`SELECT * FROM insert_prompt($1, $2, $3, $4, $5, $6)`,
		prompt.UserPrompt,
		prompt.GameID,
		createdAt,
		keywords,
		prompt.ModelVersion,
		embedding,
	)

	err := scanPrompt(row, prompt)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectPrompt retrieves a prompt by ID
func (h *PromptsDBHandler) SelectPrompt(ctx context.Context, id int64) (*model.Prompt, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_prompt($1)`, id)

	prompt := &model.Prompt{}
	err := scanPrompt(row, prompt)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return prompt, nil
}

// SelectRecentPrompts returns the newest prompts first, optionally for one game only
func (h *PromptsDBHandler) SelectRecentPrompts(ctx context.Context, gameID *int64, limit int) ([]*model.Prompt, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_recent_prompts($1, $2)`, gameID, limit)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	prompts := []*model.Prompt{}
	for rows.Next() {
		prompt := &model.Prompt{}
		err := scanPrompt(rows, prompt)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		prompts = append(prompts, prompt)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return prompts, nil
}

// DeletePrompt deletes a prompt and its recommendations
func (h *PromptsDBHandler) DeletePrompt(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_prompt($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanPrompt(row rowScanner, prompt *model.Prompt) error {
	err := row.Scan(
		&prompt.ID,
		&prompt.UserPrompt,
		&prompt.GameID,
		&prompt.CreatedAt,
		&prompt.ExtractedKeywords,
		&prompt.ModelVersion,
		pq.Array(&prompt.Embedding),
	)
	if err != nil {
		return err
	}
	prompt.CreatedAt = prompt.CreatedAt.UTC()
	return nil
}
