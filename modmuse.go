package modmuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/modmuse/api"
	"github.com/siherrmann/modmuse/core/catalog"
	"github.com/siherrmann/modmuse/core/pipeline"
	"github.com/siherrmann/modmuse/core/retrieval"
	"github.com/siherrmann/modmuse/database"
	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
	loadSql "github.com/siherrmann/modmuse/sql"
)

// ModMuse provides a unified interface to all database handlers and services
type ModMuse struct {
	DB                *helper.Database
	Games             *database.GamesDBHandler
	Mods              *database.ModsDBHandler
	Tags              *database.TagsDBHandler
	Dependencies      *database.DependenciesDBHandler
	Incompatibilities *database.IncompatibilitiesDBHandler
	Prompts           *database.PromptsDBHandler
	Recommendations   *database.RecommendationsDBHandler
	Catalog           *catalog.Catalog
	Pipeline          *pipeline.Pipeline // Understanding pipeline, required for Recommend and Backfill
	Engine            *retrieval.Engine  // Recommendation engine, set together with the pipeline
	topK              int
	// Logging
	log *slog.Logger
}

// NewModMuse creates a new ModMuse instance with all handlers initialized.
// Embedding columns are created with embeddingDim dimensions.
func NewModMuse(config *helper.DatabaseConfiguration, embeddingDim int, topK int) (*ModMuse, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("modmuse", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	m := &ModMuse{DB: db, topK: topK, log: logger}

	// Create all handlers in foreign key order
	// force=false to not reload if functions already exist
	m.Games, err = database.NewGamesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create games handler", err)
	}

	m.Mods, err = database.NewModsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create mods handler", err)
	}

	m.Tags, err = database.NewTagsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create tags handler", err)
	}

	m.Dependencies, err = database.NewDependenciesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create dependencies handler", err)
	}

	m.Incompatibilities, err = database.NewIncompatibilitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create incompatibilities handler", err)
	}

	m.Prompts, err = database.NewPromptsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create prompts handler", err)
	}

	m.Recommendations, err = database.NewRecommendationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create recommendations handler", err)
	}

	m.Catalog = catalog.NewCatalog(m.Games, m.Mods, m.Tags, m.Dependencies, m.Incompatibilities, logger)

	return m, nil
}

// Close closes the database connection
func (m *ModMuse) Close() error {
	if m.DB != nil && m.DB.Instance != nil {
		return m.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the understanding pipeline and creates the recommendation engine for it
func (m *ModMuse) SetPipeline(p *pipeline.Pipeline) {
	m.Pipeline = p
	m.Engine = retrieval.NewEngine(m.DB, m.Games, m.Mods, m.Prompts, m.Recommendations, p, m.topK, m.log)
}

// UsePipelineFromConfig sets up the pipeline described by the service configuration.
// Keywords come from the OpenAI chat model if an API key is set and from the catalog's
// tag vocabulary otherwise. Embeddings come from OpenAI or the local MiniLM model.
func (m *ModMuse) UsePipelineFromConfig(ctx context.Context, config *helper.ServiceConfiguration) error {
	openAIConfig := pipeline.DefaultOpenAIConfig(config.OpenAIAPIKey)
	openAIConfig.BaseURL = config.OpenAIBaseURL
	openAIConfig.KeywordModel = config.KeywordModel
	openAIConfig.EmbeddingModel = config.EmbeddingModel
	openAIConfig.EmbeddingDim = config.EmbeddingDim
	openAIConfig.MaxRetries = config.MaxRetries

	var keywords pipeline.KeywordFunc
	modelVersion := config.KeywordModel
	if config.OpenAIAPIKey != "" {
		keywords = pipeline.NewOpenAIKeywordExtractor(openAIConfig)
	} else {
		keywords = pipeline.NewLiveVocabularyKeywordExtractor(m.tagVocabulary)
		modelVersion = "tag-vocabulary"
	}

	var embedder pipeline.EmbedFunc
	switch config.EmbeddingProvider {
	case helper.EmbeddingProviderOpenAI:
		embedder = pipeline.NewOpenAIEmbedder(openAIConfig)
	case helper.EmbeddingProviderLocal:
		var err error
		embedder, err = pipeline.DefaultEmbedder()
		if err != nil {
			return helper.NewError("create default embedder", err)
		}
	default:
		return helper.NewError("create embedder", fmt.Errorf("unknown embedding provider: %s", config.EmbeddingProvider))
	}

	m.SetPipeline(pipeline.NewPipeline(keywords, embedder, modelVersion))
	m.log.Info("Configured pipeline", slog.String("model_version", modelVersion), slog.String("embedding_provider", config.EmbeddingProvider))

	return nil
}

// tagVocabulary returns the names of all catalog tags.
func (m *ModMuse) tagVocabulary(ctx context.Context) ([]string, error) {
	tags, err := m.Tags.SelectAllTags(ctx)
	if err != nil {
		return nil, helper.NewError("select tag vocabulary", err)
	}
	vocabulary := make([]string, len(tags))
	for i, tag := range tags {
		vocabulary[i] = tag.Name
	}
	return vocabulary, nil
}

// Recommend generates, stores and returns ranked recommendations for a prompt
func (m *ModMuse) Recommend(ctx context.Context, prompt string, gameID int64) (*model.RecommendationResult, error) {
	if m.Engine == nil {
		return nil, helper.NewError("recommend", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return m.Engine.Generate(ctx, prompt, gameID)
}

// Seed writes the starter catalog
func (m *ModMuse) Seed(ctx context.Context) (*catalog.SeedResult, error) {
	return m.Catalog.Seed(ctx, catalog.DefaultSeedData())
}

// Backfill computes missing mod embeddings with the pipeline's embedder
func (m *ModMuse) Backfill(ctx context.Context) (*catalog.BackfillResult, error) {
	if m.Pipeline == nil || m.Pipeline.Embedder == nil {
		return nil, helper.NewError("backfill", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}
	return catalog.NewBackfiller(m.Games, m.Mods, m.Pipeline.Embedder, m.log).Run(ctx)
}

// Server creates the HTTP API on top of the engine and the catalog
func (m *ModMuse) Server(options api.Options) (*api.Server, error) {
	if m.Engine == nil {
		return nil, helper.NewError("create server", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if options.Logger == nil {
		options.Logger = m.log
	}
	return api.NewServer(m.Engine, m.Catalog, options), nil
}

// ChangeIndexType changes the mod embedding index between HNSW and IVFFlat
func (m *ModMuse) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return m.Mods.ChangeIndexType(ctx, indexType, params)
}
