package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/siherrmann/modmuse/core/catalog"
	"github.com/siherrmann/modmuse/core/retrieval"
)

const maxBodyBytes = 1 << 16

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

// createRecommendations handles POST /api/v1/recommendations.
func (s *Server) createRecommendations(w http.ResponseWriter, r *http.Request) {
	var request RecommendationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := decoder.Decode(&request)
	if err != nil {
		respondError(w, r, s.logger, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if message := validateStruct(&request); message != "" {
		respondError(w, r, s.logger, http.StatusBadRequest, message, nil)
		return
	}

	gameID := s.options.DefaultGameID
	if request.GameID != nil {
		gameID = *request.GameID
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.options.RequestTimeout)
	defer cancel()

	result, err := s.recommender.Generate(ctx, request.UserPrompt, gameID)
	if err != nil {
		var validationErr *retrieval.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, r, s.logger, http.StatusBadRequest, validationErr.Error(), err)
			return
		}
		respondError(w, r, s.logger, http.StatusInternalServerError, "recommendation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// getRecommendations handles GET /api/v1/recommendations/{promptID}.
func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	promptID, ok := s.pathID(w, r, "promptID")
	if !ok {
		return
	}

	result, err := s.recommender.Result(r.Context(), promptID)
	if errors.Is(err, retrieval.ErrPromptNotFound) {
		respondError(w, r, s.logger, http.StatusNotFound, "prompt not found", nil)
		return
	} else if err != nil {
		respondError(w, r, s.logger, http.StatusInternalServerError, "failed to load recommendations", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// listGames handles GET /api/v1/games.
func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.catalog.Games(r.Context())
	if err != nil {
		respondError(w, r, s.logger, http.StatusInternalServerError, "failed to load games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// listMods handles GET /api/v1/games/{gameID}/mods.
func (s *Server) listMods(w http.ResponseWriter, r *http.Request) {
	gameID, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}

	mods, err := s.catalog.ModsByGame(r.Context(), gameID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, r, s.logger, http.StatusNotFound, "game not found", nil)
		return
	} else if err != nil {
		respondError(w, r, s.logger, http.StatusInternalServerError, "failed to load mods", err)
		return
	}

	respondJSON(w, http.StatusOK, mods)
}

// getMod handles GET /api/v1/mods/{modID}.
func (s *Server) getMod(w http.ResponseWriter, r *http.Request) {
	modID, ok := s.pathID(w, r, "modID")
	if !ok {
		return
	}

	detail, err := s.catalog.ModDetail(r.Context(), modID)
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(w, r, s.logger, http.StatusNotFound, "mod not found", nil)
		return
	} else if err != nil {
		respondError(w, r, s.logger, http.StatusInternalServerError, "failed to load mod", err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// pathID parses a positive integer URL parameter and answers 400 otherwise.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, r, s.logger, http.StatusBadRequest, "invalid "+name, err)
		return 0, false
	}
	return id, true
}
