package retrieval

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/modmuse/database"
	"github.com/siherrmann/modmuse/helper"
	loadSql "github.com/siherrmann/modmuse/sql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

const testEmbeddingDim = 8

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

type testHandlers struct {
	db              *helper.Database
	games           *database.GamesDBHandler
	mods            *database.ModsDBHandler
	tags            *database.TagsDBHandler
	prompts         *database.PromptsDBHandler
	recommendations *database.RecommendationsDBHandler
}

func initHandlers(t *testing.T) *testHandlers {
	db := initDB(t)
	h := &testHandlers{db: db}
	var err error

	h.games, err = database.NewGamesDBHandler(db, true)
	require.NoError(t, err)
	h.mods, err = database.NewModsDBHandler(db, testEmbeddingDim, true)
	require.NoError(t, err)
	h.tags, err = database.NewTagsDBHandler(db, true)
	require.NoError(t, err)
	h.prompts, err = database.NewPromptsDBHandler(db, testEmbeddingDim, true)
	require.NoError(t, err)
	h.recommendations, err = database.NewRecommendationsDBHandler(db, true)
	require.NoError(t, err)

	return h
}
