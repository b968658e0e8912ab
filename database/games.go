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

// GamesDBHandlerFunctions defines the interface for Games database operations.
type GamesDBHandlerFunctions interface {
	InsertGame(ctx context.Context, game *model.Game) error
	SelectGame(ctx context.Context, id int64) (*model.Game, error)
	SelectAllGames(ctx context.Context) ([]*model.Game, error)
	DeleteGame(ctx context.Context, id int64) error
}

// GamesDBHandler handles game-related database operations
type GamesDBHandler struct {
	db *helper.Database
}

// NewGamesDBHandler creates a new games database handler.
// It loads the game-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewGamesDBHandler(db *helper.Database, force bool) (*GamesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	gamesDbHandler := &GamesDBHandler{
		db: db,
	}

	err := sql.LoadGamesSql(gamesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load games sql", err)
	}

	err = gamesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized GamesDBHandler")

	return gamesDbHandler, nil
}

// CreateTable creates the 'game' table in the database.
// If the table already exists, it does not create it again.
func (h *GamesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_games();`)
	if err != nil {
		log.Panicf("error initializing game table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table game")

	return nil
}

// InsertGame inserts a game or updates the game with the same name.
func (h *GamesDBHandler) InsertGame(ctx context.Context, game *model.Game) error {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_game($1, $2, $3, $4)`,
		game.Name,
		game.Genre,
		game.Engine,
		game.Platform,
	)

	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.Genre,
		&game.Engine,
		&game.Platform,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectGame retrieves a game by ID
func (h *GamesDBHandler) SelectGame(ctx context.Context, id int64) (*model.Game, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_game($1)`,
		id,
	)

	game := &model.Game{}
	err := row.Scan(
		&game.ID,
		&game.Name,
		&game.Genre,
		&game.Engine,
		&game.Platform,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return game, nil
}

// SelectAllGames retrieves all games ordered by ID
func (h *GamesDBHandler) SelectAllGames(ctx context.Context) ([]*model.Game, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_games()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	games := []*model.Game{}
	for rows.Next() {
		game := &model.Game{}
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&game.Genre,
			&game.Engine,
			&game.Platform,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		games = append(games, game)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return games, nil
}

// DeleteGame deletes a game and, by cascade, its mods.
// A game with stored prompts is kept and ErrReferencedByHistory is returned.
func (h *GamesDBHandler) DeleteGame(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_game($1)`, id)
	if isForeignKeyViolation(err) {
		return helper.NewError("exec", ErrReferencedByHistory)
	} else if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
