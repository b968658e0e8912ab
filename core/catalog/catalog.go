package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/modmuse/core/graph"
	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSelfReference   = errors.New("mod cannot reference itself")
	ErrDependencyCycle = errors.New("dependency would create a cycle")
	ErrGameMismatch    = errors.New("mods belong to different games")
)

// GameStore reads and writes games
type GameStore interface {
	InsertGame(ctx context.Context, game *model.Game) error
	SelectGame(ctx context.Context, id int64) (*model.Game, error)
	SelectAllGames(ctx context.Context) ([]*model.Game, error)
}

// ModStore reads and writes mods
type ModStore interface {
	InsertMod(ctx context.Context, mod *model.Mod) error
	SelectMod(ctx context.Context, id int64) (*model.Mod, error)
	SelectModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error)
	SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error)
	UpdateModEmbedding(ctx context.Context, id int64, embedding []float32) (*model.Mod, error)
}

// TagStore writes tags and their links to mods
type TagStore interface {
	InsertTag(ctx context.Context, tag *model.Tag) error
	InsertModTag(ctx context.Context, modID int64, tagID int64) error
}

// DependencyStore reads and writes dependency edges
type DependencyStore interface {
	InsertDependency(ctx context.Context, dependency *model.Dependency) error
	SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error)
}

// IncompatibilityStore reads and writes incompatible pairs
type IncompatibilityStore interface {
	InsertIncompatibility(ctx context.Context, incompatibility *model.Incompatibility) error
	SelectIncompatibilitiesOfMod(ctx context.Context, modID int64) ([]*model.Incompatibility, error)
}

// Catalog maintains games, mods and the relations between mods.
type Catalog struct {
	games             GameStore
	mods              ModStore
	tags              TagStore
	dependencies      DependencyStore
	incompatibilities IncompatibilityStore
	logger            *slog.Logger
}

// NewCatalog creates a catalog on top of the given stores. A nil logger falls back to slog.Default().
func NewCatalog(
	games GameStore,
	mods ModStore,
	tags TagStore,
	dependencies DependencyStore,
	incompatibilities IncompatibilityStore,
	logger *slog.Logger,
) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	return &Catalog{
		games:             games,
		mods:              mods,
		tags:              tags,
		dependencies:      dependencies,
		incompatibilities: incompatibilities,
		logger:            logger,
	}
}

// Games lists all games ordered by ID
func (c *Catalog) Games(ctx context.Context) ([]*model.Game, error) {
	games, err := c.games.SelectAllGames(ctx)
	if err != nil {
		return nil, helper.NewError("select games", err)
	}
	return games, nil
}

// ModsByGame lists the mods of an existing game ordered by ID
func (c *Catalog) ModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error) {
	_, err := c.games.SelectGame(ctx, gameID)
	if err != nil {
		return nil, notFound("select game", err)
	}

	mods, err := c.mods.SelectModsByGame(ctx, gameID)
	if err != nil {
		return nil, helper.NewError("select mods", err)
	}
	return mods, nil
}

// AddDependency records that modID requires dependsOnModID.
// Both mods must exist in the same game and the edge must not close a cycle.
func (c *Catalog) AddDependency(ctx context.Context, modID int64, dependsOnModID int64) (*model.Dependency, error) {
	if modID == dependsOnModID {
		return nil, helper.NewError("dependency validation", ErrSelfReference)
	}
	err := c.sameGame(ctx, modID, dependsOnModID)
	if err != nil {
		return nil, err
	}

	cycle, err := graph.Reaches(ctx, c.dependencies, dependsOnModID, modID)
	if err != nil {
		return nil, helper.NewError("check dependency cycle", err)
	}
	if cycle {
		return nil, helper.NewError("dependency validation", fmt.Errorf("%w: %d -> %d", ErrDependencyCycle, modID, dependsOnModID))
	}

	dependency := &model.Dependency{ModID: modID, DependsOnModID: dependsOnModID}
	err = c.dependencies.InsertDependency(ctx, dependency)
	if err != nil {
		return nil, helper.NewError("insert dependency", err)
	}

	c.logger.Debug("Added dependency", slog.Int64("mod_id", modID), slog.Int64("depends_on_mod_id", dependsOnModID))

	return dependency, nil
}

// AddIncompatibility records that two mods of the same game conflict.
// The pair is stored once, in canonical order.
func (c *Catalog) AddIncompatibility(ctx context.Context, modIDA int64, modIDB int64) (*model.Incompatibility, error) {
	if modIDA == modIDB {
		return nil, helper.NewError("incompatibility validation", ErrSelfReference)
	}
	err := c.sameGame(ctx, modIDA, modIDB)
	if err != nil {
		return nil, err
	}

	incompatibility := &model.Incompatibility{ModIDA: modIDA, ModIDB: modIDB}
	err = c.incompatibilities.InsertIncompatibility(ctx, incompatibility)
	if err != nil {
		return nil, helper.NewError("insert incompatibility", err)
	}

	c.logger.Debug("Added incompatibility", slog.Int64("mod_id_a", incompatibility.ModIDA), slog.Int64("mod_id_b", incompatibility.ModIDB))

	return incompatibility, nil
}

// ModDetail loads a mod with everything it transitively requires and
// every mod it is incompatible with.
func (c *Catalog) ModDetail(ctx context.Context, modID int64) (*model.ModDetail, error) {
	mod, err := c.mods.SelectMod(ctx, modID)
	if err != nil {
		return nil, notFound("select mod", err)
	}

	requires, err := graph.Requirements(ctx, graph.NewGraphDB(c.mods, c.dependencies), modID)
	if err != nil {
		return nil, helper.NewError("resolve requirements", err)
	}

	pairs, err := c.incompatibilities.SelectIncompatibilitiesOfMod(ctx, modID)
	if err != nil {
		return nil, helper.NewError("select incompatibilities", err)
	}
	otherIDs := make([]int64, 0, len(pairs))
	for _, pair := range pairs {
		if pair.ModIDA == modID {
			otherIDs = append(otherIDs, pair.ModIDB)
		} else {
			otherIDs = append(otherIDs, pair.ModIDA)
		}
	}
	incompatible, err := c.mods.SelectModsByIDs(ctx, otherIDs)
	if err != nil {
		return nil, helper.NewError("select incompatible mods", err)
	}

	return &model.ModDetail{
		Mod:              mod,
		Requires:         requires,
		IncompatibleWith: incompatible,
	}, nil
}

func (c *Catalog) sameGame(ctx context.Context, modIDA int64, modIDB int64) error {
	a, err := c.mods.SelectMod(ctx, modIDA)
	if err != nil {
		return notFound("select mod", err)
	}
	b, err := c.mods.SelectMod(ctx, modIDB)
	if err != nil {
		return notFound("select mod", err)
	}
	if a.GameID != b.GameID {
		return helper.NewError("relation validation", fmt.Errorf("%w: %d and %d", ErrGameMismatch, modIDA, modIDB))
	}
	return nil
}

// notFound maps a missing row to ErrNotFound and wraps everything else.
func notFound(step string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return helper.NewError(step, ErrNotFound)
	}
	return helper.NewError(step, err)
}
