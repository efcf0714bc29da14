package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finboard/internal/core"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeValidationError maps domain validation failures to 422 responses.
// Allocation mismatches carry both totals so the client can show the
// difference. Anything else is an infrastructure failure and is reported
// generically.
func writeValidationError(w http.ResponseWriter, err error) {
	var mismatch *core.AllocationMismatchError
	if errors.As(err, &mismatch) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: mismatch.Error(),
			Details: map[string]string{
				"computed_total": mismatch.Allocated.String(),
				"expected_total": mismatch.Income.String(),
			},
		})
		return
	}
	if core.IsValidationError(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
