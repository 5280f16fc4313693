package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/cv-letter-agent/internal/artifacts"
	"github.com/jonathan/cv-letter-agent/internal/session"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", &session.ErrSessionNotFound{ID: "x"}, http.StatusNotFound},
		{"section not found", &session.ErrSectionNotFound{SessionID: "x", Section: "Skills"}, http.StatusNotFound},
		{"artifact not found", artifacts.ErrNotFound, http.StatusNotFound},
		{"validation", &session.ErrValidation{Field: "job_text"}, http.StatusBadRequest},
		{"invalid action", &session.ErrInvalidAction{Action: "reject"}, http.StatusBadRequest},
		{"conflict", &session.ErrConflict{SessionID: "x", Status: session.StatusProcessing}, http.StatusConflict},
		{"upstream", &session.ErrUpstream{Op: "modify", Err: errors.New("down")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestLanguageSupported(t *testing.T) {
	assert.True(t, languageSupported("English"))
	assert.True(t, languageSupported("German"))
	assert.False(t, languageSupported("english"))
	assert.False(t, languageSupported("Klingon"))
}
