// Package server provides the HTTP REST API for the CV letter agent.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/cv-letter-agent/internal/artifacts"
	"github.com/jonathan/cv-letter-agent/internal/session"
)

// HTTPStatus returns the appropriate HTTP status code for an error coming
// out of the session store or artifact store.
func HTTPStatus(err error) int {
	var (
		notFound    *session.ErrSessionNotFound
		sectionGone *session.ErrSectionNotFound
		validation  *session.ErrValidation
		badAction   *session.ErrInvalidAction
		conflict    *session.ErrConflict
		upstream    *session.ErrUpstream
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &sectionGone), errors.Is(err, artifacts.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &badAction):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
