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

// IncompatibilitiesDBHandlerFunctions defines the interface for Incompatibilities database operations.
type IncompatibilitiesDBHandlerFunctions interface {
	InsertIncompatibility(ctx context.Context, incompatibility *model.Incompatibility) error
	SelectIncompatibilitiesOfMod(ctx context.Context, modID int64) ([]*model.Incompatibility, error)
	DeleteIncompatibility(ctx context.Context, modIDA int64, modIDB int64) error
}

// IncompatibilitiesDBHandler handles incompatibility pair database operations.
// Pairs are symmetric and always stored with the smaller mod ID first.
type IncompatibilitiesDBHandler struct {
	db *helper.Database
}

// NewIncompatibilitiesDBHandler creates a new incompatibilities database handler.
func NewIncompatibilitiesDBHandler(db *helper.Database, force bool) (*IncompatibilitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	incompatibilitiesDbHandler := &IncompatibilitiesDBHandler{
		db: db,
	}

	err := sql.LoadIncompatibilitiesSql(incompatibilitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load incompatibilities sql", err)
	}

	err = incompatibilitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized IncompatibilitiesDBHandler")

	return incompatibilitiesDbHandler, nil
}

// CreateTable creates the 'incompatibility' table in the database.
func (h *IncompatibilitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_incompatibilities();`)
	if err != nil {
		log.Panicf("error initializing incompatibility table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table incompatibility")

	return nil
}

// InsertIncompatibility stores the pair in canonical order and writes the canonical
// pair back into incompatibility.
func (h *IncompatibilitiesDBHandler) InsertIncompatibility(ctx context.Context, incompatibility *model.Incompatibility) error {
	if incompatibility.ModIDA == incompatibility.ModIDB {
		return helper.NewError("incompatibility validation", fmt.Errorf("mod %d cannot be incompatible with itself", incompatibility.ModIDA))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_incompatibility($1, $2)`,
		incompatibility.ModIDA,
		incompatibility.ModIDB,
	)

	err := row.Scan(&incompatibility.ModIDA, &incompatibility.ModIDB)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectIncompatibilitiesOfMod returns all pairs the mod takes part in, on either side.
func (h *IncompatibilitiesDBHandler) SelectIncompatibilitiesOfMod(ctx context.Context, modID int64) ([]*model.Incompatibility, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_incompatibilities_of_mod($1)`, modID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	incompatibilities := []*model.Incompatibility{}
	for rows.Next() {
		incompatibility := &model.Incompatibility{}
		err := rows.Scan(&incompatibility.ModIDA, &incompatibility.ModIDB)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		incompatibilities = append(incompatibilities, incompatibility)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return incompatibilities, nil
}

// DeleteIncompatibility deletes the pair regardless of argument order
func (h *IncompatibilitiesDBHandler) DeleteIncompatibility(ctx context.Context, modIDA int64, modIDB int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_incompatibility($1, $2)`, modIDA, modIDB)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
