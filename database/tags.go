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

// TagsDBHandlerFunctions defines the interface for Tags database operations.
type TagsDBHandlerFunctions interface {
	InsertTag(ctx context.Context, tag *model.Tag) error
	SelectTag(ctx context.Context, id int64) (*model.Tag, error)
	SelectTagByName(ctx context.Context, name string) (*model.Tag, error)
	SelectAllTags(ctx context.Context) ([]*model.Tag, error)
	InsertModTag(ctx context.Context, modID int64, tagID int64) error
	DeleteModTag(ctx context.Context, modID int64, tagID int64) error
	DeleteTag(ctx context.Context, id int64) error
}

// TagsDBHandler handles tag and mod_tag database operations
type TagsDBHandler struct {
	db *helper.Database
}

// NewTagsDBHandler creates a new tags database handler.
// The mod table has to exist because mod_tag references it.
func NewTagsDBHandler(db *helper.Database, force bool) (*TagsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	tagsDbHandler := &TagsDBHandler{
		db: db,
	}

	err := sql.LoadTagsSql(tagsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load tags sql", err)
	}

	err = tagsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TagsDBHandler")

	return tagsDbHandler, nil
}

// CreateTable creates the 'tag' and 'mod_tag' tables in the database.
func (h *TagsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_tags();`)
	if err != nil {
		log.Panicf("error initializing tag tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables tag and mod_tag")

	return nil
}

// InsertTag inserts a tag. If the name exists the existing tag is returned in place.
func (h *TagsDBHandler) InsertTag(ctx context.Context, tag *model.Tag) error {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM insert_tag($1)`, tag.Name)

	err := row.Scan(&tag.ID, &tag.Name)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectTag retrieves a tag by ID
func (h *TagsDBHandler) SelectTag(ctx context.Context, id int64) (*model.Tag, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_tag($1)`, id)

	tag := &model.Tag{}
	err := row.Scan(&tag.ID, &tag.Name)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return tag, nil
}

// SelectTagByName retrieves a tag by its exact name
func (h *TagsDBHandler) SelectTagByName(ctx context.Context, name string) (*model.Tag, error) {
	row := h.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_tag_by_name($1)`, name)

	tag := &model.Tag{}
	err := row.Scan(&tag.ID, &tag.Name)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return tag, nil
}

// SelectAllTags retrieves all tags ordered by ID
func (h *TagsDBHandler) SelectAllTags(ctx context.Context) ([]*model.Tag, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_tags()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	tags := []*model.Tag{}
	for rows.Next() {
		tag := &model.Tag{}
		err := rows.Scan(&tag.ID, &tag.Name)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		tags = append(tags, tag)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return tags, nil
}

// InsertModTag links a tag to a mod. Linking twice is a no-op.
func (h *TagsDBHandler) InsertModTag(ctx context.Context, modID int64, tagID int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT insert_mod_tag($1, $2)`, modID, tagID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteModTag removes a tag from a mod
func (h *TagsDBHandler) DeleteModTag(ctx context.Context, modID int64, tagID int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_mod_tag($1, $2)`, modID, tagID)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteTag deletes a tag and its mod links
func (h *TagsDBHandler) DeleteTag(ctx context.Context, id int64) error {
	_, err := h.db.Instance.ExecContext(ctx, `SELECT delete_tag($1)`, id)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
