package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jupiterclapton/dunbar/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// writeError mappe la taxonomie du domaine vers HTTP. Seules les erreurs
// classifiées exposent leur message ; tout le reste devient un 500 opaque
// (on ne fuit jamais les détails du stockage).
func writeError(w http.ResponseWriter, err error) {
	kind := domain.Kind(err)

	var status int
	var label string
	switch kind {
	case domain.KindValidation:
		status, label = http.StatusBadRequest, "validation"
	case domain.KindConflict:
		status, label = http.StatusConflict, "conflict"
	case domain.KindNotFound:
		status, label = http.StatusNotFound, "not_found"
	case domain.KindAuthorization:
		status, label = http.StatusForbidden, "authorization"
	case domain.KindTransient:
		// Retentable par le client — mais sans exposer la cause technique
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporary failure, please retry", Kind: "transient"})
		return
	default:
		slog.Error("unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: "internal"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: label})
}
