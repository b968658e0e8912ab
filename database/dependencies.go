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

// DependenciesDBHandlerFunctions defines the interface for Dependencies database operations.
type DependenciesDBHandlerFunctions interface {
	InsertDependency(ctx context.Context, dependency *model.Dependency) error
	SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error)
	SelectDependenciesToMod(ctx context.Context, modID int64) ([]*model.Dependency, error)
	DeleteDependency(ctx context.Context, id int64) error
}

// DependenciesDBHandler handles dependency edge database operations.
// Self dependencies are rejected by the table, cycles are rejected by the catalog service.
type DependenciesDBHandler struct {
	db *helper.Database
}

// NewDependenciesDBHandler creates a new dependencies database handler.
func NewDependenciesDBHandler(db *helper.Database, force bool) (*DependenciesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	dependenciesDbHandler := &DependenciesDBHandler{
		db: db,
	}

	err := sql.LoadDependenciesSql(dependenciesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load dependencies sql", err)
	}

	err = dependenciesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DependenciesDBHandler")

	return dependenciesDbHandler, nil
}

// CreateTable creates the 'dependency' table in the database.
func (h *DependenciesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_dependencies();`)
	if err != nil {
		log.Panicf("error initializing dependency table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table dependency")

	return nil
}

// InsertDependency inserts a dependency edge. An existing edge is returned in place.
func (h *DependenciesDBHandler) InsertDependency(ctx context.Context, dependency *model.Dependency) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_dependency($1, $2)`,
		dependency.ModID,
		dependency.DependsOnModID,
	)

	err := row.Scan(&dependency.ID, &dependency.ModID, &dependency.DependsOnModID)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDependenciesFromMod returns the edges of mods the given mod requires
func (h *DependenciesDBHandler) SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error) {
	return h.queryDependencies(ctx, `SELECT * FROM select_dependencies_from_mod($1)`, modID)
}

// SelectDependenciesToMod returns the edges of mods requiring the given mod
func (h *DependenciesDBHandler) SelectDependenciesToMod(ctx context.Context, modID int64) ([]*model.Dependency, error) {
	return h.queryDependencies(ctx, `SELECT * FROM select_dependencies_to_mod($1)`, modID)
}

// DeleteDependency deletes a dependency edge by ID
func (h *DependenciesDBHandler) DeleteDependency(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_dependency($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func (h *DependenciesDBHandler) queryDependencies(ctx context.Context, query string, modID int64) ([]*model.Dependency, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, modID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	dependencies := []*model.Dependency{}
	for rows.Next() {
		dependency := &model.Dependency{}
		err := rows.Scan(&dependency.ID, &dependency.ModID, &dependency.DependsOnModID)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		dependencies = append(dependencies, dependency)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return dependencies, nil
}
