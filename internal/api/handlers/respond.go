package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ReelForge/pkg/compose"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseJobID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid job ID", zap.String("job_id", raw), zap.Error(err))
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// compileStatus maps compiler errors onto HTTP statuses.
func compileStatus(err error) int {
	var trimErr *compose.InvalidTrimError
	if errors.As(err, &trimErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
