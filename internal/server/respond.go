package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/careops-labs/careboard/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, format string, args ...any) {
	respondJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// respondStoreError maps store lookups onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		respondError(w, http.StatusNotFound, "%v", err)
		return
	}
	respondError(w, http.StatusInternalServerError, "%v", err)
}
