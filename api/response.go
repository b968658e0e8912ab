package api

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Failed to marshal JSON response", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write JSON response", slog.String("error", err.Error()))
	}
}

// respondError writes detail to the client. err is only logged.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, detail string, err error) {
	if err != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(
			r.Context(),
			level,
			"Request failed",
			slog.String("request_id", requestID(r)),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}

	respondJSON(w, status, &ErrorResponse{Detail: detail})
}
