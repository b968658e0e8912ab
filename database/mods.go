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

// ModsDBHandlerFunctions defines the interface for Mods database operations.
type ModsDBHandlerFunctions interface {
	InsertMod(ctx context.Context, mod *model.Mod) error
	SelectMod(ctx context.Context, id int64) (*model.Mod, error)
	SelectModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error)
	SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error)
	SelectModsBySimilarity(ctx context.Context, gameID int64, embedding []float32, limit int) ([]*model.Mod, error)
	SelectModsByTagNames(ctx context.Context, gameID int64, tagNames []string) ([]*model.Mod, error)
	UpdateModEmbedding(ctx context.Context, id int64, embedding []float32) (*model.Mod, error)
	DeleteMod(ctx context.Context, id int64) error
}

// ModsDBHandler handles mod-related database operations
type ModsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewModsDBHandler creates a new mods database handler.
// The embedding column is created with embeddingDim dimensions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewModsDBHandler(db *helper.Database, embeddingDim int, force bool) (*ModsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	modsDbHandler := &ModsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadModsSql(modsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mods sql", err)
	}

	err = modsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ModsDBHandler")

	return modsDbHandler, nil
}

// CreateTable creates the 'mod' table in the database.
// If the table already exists, it does not create it again.
// It also creates the game and hnsw embedding indexes.
func (h *ModsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mods($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing mod table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table mod")

	return nil
}

// EmbeddingDim returns the dimension of the embedding column.
func (h *ModsDBHandler) EmbeddingDim() int {
	return h.embeddingDim
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMod scans the common mod columns. Extra destinations are appended after the tag columns.
func scanMod(row rowScanner, extra ...any) (*model.Mod, error) {
	mod := &model.Mod{}
	var tagIDs []int64
	var tagNames []string

	dest := []any{
		&mod.ID,
		&mod.GameID,
		&mod.Name,
		&mod.Description,
		&mod.SourceURL,
		&mod.Version,
		pq.Array(&mod.Embedding),
		pq.Array(&tagIDs),
		pq.Array(&tagNames),
	}
	dest = append(dest, extra...)

	err := row.Scan(dest...)
	if err != nil {
		return nil, err
	}

	if len(tagIDs) != len(tagNames) {
		return nil, fmt.Errorf("tag id and name count differ for mod %d", mod.ID)
	}
	mod.Tags = make([]model.Tag, len(tagIDs))
	for i := range tagIDs {
		mod.Tags[i] = model.Tag{ID: tagIDs[i], Name: tagNames[i]}
	}

	return mod, nil
}

// InsertMod inserts a mod or updates the mod with the same game and name.
// A stored embedding is kept on update.
func (h *ModsDBHandler) InsertMod(ctx context.Context, mod *model.Mod) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_mod($1, $2, $3, $4, $5)`,
		mod.GameID,
		mod.Name,
		mod.Description,
		mod.SourceURL,
		mod.Version,
	)

	inserted, err := scanMod(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*mod = *inserted

	return nil
}

// SelectMod retrieves a mod with its tags by ID
func (h *ModsDBHandler) SelectMod(ctx context.Context, id int64) (*model.Mod, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_mod($1)`,
		id,
	)

	mod, err := scanMod(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return mod, nil
}

// SelectModsByGame retrieves all mods of a game ordered by ID
func (h *ModsDBHandler) SelectModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error) {
	return h.queryMods(ctx, `SELECT * FROM select_mods_by_game($1)`, gameID)
}

// SelectModsByIDs retrieves the given mods ordered by ID. Unknown IDs are skipped.
func (h *ModsDBHandler) SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error) {
	if len(ids) == 0 {
		return []*model.Mod{}, nil
	}
	return h.queryMods(ctx, `SELECT * FROM select_mods_by_ids($1)`, pq.Array(ids))
}

// SelectModsBySimilarity returns up to limit mods of the game that have an embedding,
// nearest first by cosine distance. Each mod carries its distance.
func (h *ModsDBHandler) SelectModsBySimilarity(ctx context.Context, gameID int64, embedding []float32, limit int) ([]*model.Mod, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_mods_by_similarity($1, $2, $3)`,
		gameID,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	mods := []*model.Mod{}
	for rows.Next() {
		var distance float64
		mod, err := scanMod(rows, &distance)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		mod.Distance = &distance

		mods = append(mods, mod)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mods, nil
}

// SelectModsByTagNames returns all mods of the game having at least one tag
// named exactly like one of tagNames, ordered by ID.
func (h *ModsDBHandler) SelectModsByTagNames(ctx context.Context, gameID int64, tagNames []string) ([]*model.Mod, error) {
	if len(tagNames) == 0 {
		return []*model.Mod{}, nil
	}
	return h.queryMods(ctx, `SELECT * FROM select_mods_by_tag_names($1, $2)`, gameID, pq.Array(tagNames))
}

// UpdateModEmbedding stores the embedding of a mod
func (h *ModsDBHandler) UpdateModEmbedding(ctx context.Context, id int64, embedding []float32) (*model.Mod, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding validation", fmt.Errorf("expected %d dimensions, got %d", h.embeddingDim, len(embedding)))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM update_mod_embedding($1, $2)`,
		id,
		pgvector.NewVector(embedding),
	)

	mod, err := scanMod(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return mod, nil
}

// DeleteMod deletes a mod by ID.
// A mod that was ever recommended is kept and ErrReferencedByHistory is returned.
func (h *ModsDBHandler) DeleteMod(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_mod($1)`, id)
	if isForeignKeyViolation(err) {
		return helper.NewError("exec", ErrReferencedByHistory)
	} else if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *ModsDBHandler) queryMods(ctx context.Context, query string, args ...any) ([]*model.Mod, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	mods := []*model.Mod{}
	for rows.Next() {
		mod, err := scanMod(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		mods = append(mods, mod)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return mods, nil
}
