package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/siherrmann/modmuse/helper"
)

const (
	IndexTypeHNSW    = "hnsw"
	IndexTypeIVFFlat = "ivfflat"
)

// ChangeIndexType rebuilds the mod embedding index as HNSW or IVFFlat.
// params are optional:
//   - For HNSW: "m" (int, default 16), "ef_construction" (int, default 64)
//   - For IVFFlat: "lists" (int, default 100)
func (h *ModsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	createIndexSQL, err := indexStatement(indexType, params)
	if err != nil {
		return helper.NewError("change index type", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	err = h.db.RunInTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DROP INDEX IF EXISTS idx_mod_embedding;`)
		if err != nil {
			return helper.NewError("drop index", err)
		}

		_, err = tx.ExecContext(ctx, createIndexSQL)
		if err != nil {
			return helper.NewError("create index", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index on mod embeddings with params: %v", indexType, params))

	return nil
}

func indexStatement(indexType string, params map[string]interface{}) (string, error) {
	switch indexType {
	case IndexTypeHNSW:
		m := 16
		efConstruction := 64
		if mVal, ok := params["m"].(int); ok {
			m = mVal
		}
		if efVal, ok := params["ef_construction"].(int); ok {
			efConstruction = efVal
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_mod_embedding ON mod USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		), nil

	case IndexTypeIVFFlat:
		lists := 100
		if listsVal, ok := params["lists"].(int); ok {
			lists = listsVal
		}
		return fmt.Sprintf(
			`CREATE INDEX idx_mod_embedding ON mod USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		), nil

	default:
		return "", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType)
	}
}
