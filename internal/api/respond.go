// internal/api/respond.go
package api

import (
	"net/http"

	"github.com/go-chi/render"

	"credisynth-qaa/internal/common/errors"
)

// errorEnvelope is the wire shape for every error response.
type errorEnvelope struct {
	Error *errors.StandardError `json:"error"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

// respondError maps a typed error onto its HTTP status. Internal errors are
// stripped of details before leaving the process; downstream errors keep the
// original message for debuggability.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)
	if status == http.StatusInternalServerError {
		sanitized := *stdErr
		sanitized.Details = ""
		stdErr = &sanitized
	}
	respondJSON(w, r, status, errorEnvelope{Error: stdErr})
}
