package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/efreeman/diplomat/internal/apperr"
)

// writeOK writes the `{"ok": true, ...}` success envelope: the call's
// fields are merged in at the top level. writeErr writes the failure
// form, which carries only error and optional details.
func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// writeErr maps err to the boundary's fixed status table and writes
// the JSON error envelope. An *apperr.Error carries its own kind and
// optional details; any other error is treated as InternalError with
// its message suppressed from the client.
func writeErr(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		body := map[string]any{"ok": false, "error": appErr.Message}
		if appErr.Details != nil {
			body["details"] = appErr.Details
		}
		writeJSON(w, apperr.Status(appErr.Kind), body)
		return
	}
	log.Error().Err(err).Msg("unmapped error reached the boundary")
	writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
