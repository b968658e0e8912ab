package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/siherrmann/modmuse/model"
)

// Recommender generates and reads stored recommendations, *retrieval.Engine implements it.
type Recommender interface {
	Generate(ctx context.Context, promptText string, gameID int64) (*model.RecommendationResult, error)
	Result(ctx context.Context, promptID int64) (*model.RecommendationResult, error)
}

// CatalogReader serves the catalog listings, *catalog.Catalog implements it.
type CatalogReader interface {
	Games(ctx context.Context) ([]*model.Game, error)
	ModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error)
	ModDetail(ctx context.Context, modID int64) (*model.ModDetail, error)
}

// Options configures the HTTP layer.
type Options struct {
	DefaultGameID  int64
	RequestTimeout time.Duration
	CORS           *CORSConfig
	Logger         *slog.Logger
}

// Server holds the handlers of the HTTP API.
type Server struct {
	recommender Recommender
	catalog     CatalogReader
	options     Options
	logger      *slog.Logger
}

// NewServer creates the API server. Zero options fall back to game 1,
// a 30 second request timeout, permissive CORS and slog.Default().
func NewServer(recommender Recommender, catalog CatalogReader, options Options) *Server {
	if options.DefaultGameID <= 0 {
		options.DefaultGameID = 1
	}
	if options.RequestTimeout <= 0 {
		options.RequestTimeout = 30 * time.Second
	}
	if options.CORS == nil {
		options.CORS = DefaultCORSConfig()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Server{
		recommender: recommender,
		catalog:     catalog,
		options:     options,
		logger:      options.Logger,
	}
}

// Router builds the chi router with all routes under /api/v1 and /metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(exposeRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(s.options.CORS))
	r.Use(requestLogger(s.logger))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestMetrics)

		r.Get("/health", s.health)

		r.Post("/recommendations", s.createRecommendations)
		r.Get("/recommendations/{promptID}", s.getRecommendations)

		r.Get("/games", s.listGames)
		r.Get("/games/{gameID}/mods", s.listMods)
		r.Get("/mods/{modID}", s.getMod)
	})

	return r
}

// HTTPServer wraps the router into an http.Server with timeouts derived from the request timeout.
func (s *Server) HTTPServer(address string) *http.Server {
	return &http.Server{
		Addr:              address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.options.RequestTimeout,
		WriteTimeout:      s.options.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
