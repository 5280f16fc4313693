package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/cv-letter-agent/internal/session"
)

// handleCreateSession accepts the CV upload plus the job description (as
// text or as a second upload), validates everything, and schedules the
// background pipeline. The response returns before stage 1 begins.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	cvName, cvData, err := s.readUpload(r, "cv_file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	jobText, err := s.readJobDescription(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	language := strings.TrimSpace(r.FormValue("language"))
	if language == "" {
		language = "English"
	}
	if !languageSupported(language) {
		s.errorResponse(w, http.StatusBadRequest,
			fmt.Sprintf("Unsupported language: %s. Supported: %s", language, strings.Join(SupportedLanguages, ", ")))
		return
	}

	snap := s.store.Create()
	inputs := session.Inputs{
		JobText:    jobText,
		CVFilename: cvName,
		CVData:     cvData,
		Language:   language,
	}

	snap, err = s.store.StartProcessing(snap.SessionID, inputs)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// The pipeline outlives this request; it gets its own context.
	go s.runner.Run(context.Background(), snap.SessionID, inputs)

	s.jsonResponse(w, http.StatusOK, statusResponse(snap))
}

// readUpload pulls one uploaded file out of the form and checks its
// extension against the accepted set.
func (s *Server) readUpload(r *http.Request, field string) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("missing %s upload", field)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.cfg.ExtensionAllowed(ext) {
		return "", nil, fmt.Errorf("unsupported %s file type: %s. Supported: %s",
			field, ext, strings.Join(s.cfg.Extensions, ", "))
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s upload: %v", field, err)
	}
	return header.Filename, data, nil
}

// readJobDescription resolves the job text from either the job_text form
// value or a job_file upload (parsed synchronously so length validation
// happens before anything is scheduled).
func (s *Server) readJobDescription(r *http.Request) (string, error) {
	if text := strings.TrimSpace(r.FormValue("job_text")); text != "" {
		return text, nil
	}

	if _, header, err := r.FormFile("job_file"); err == nil && header != nil {
		name, data, err := s.readUpload(r, "job_file")
		if err != nil {
			return "", err
		}
		text, err := s.parser.ExtractText(name, data)
		if err != nil {
			return "", fmt.Errorf("failed to parse job description file: %v", err)
		}
		return strings.TrimSpace(text), nil
	}

	return "", errors.New("job description required: provide job_text or job_file")
}

// handleGetSession returns the session status snapshot (polling endpoint).
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := s.store.Snapshot(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, statusResponse(snap))
}

// handleInteract applies one approve/modify/ask/skip action to one section.
func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req InteractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid interaction request: "+err.Error())
		return
	}

	result, err := s.store.Interact(r.Context(), id, req.SectionName, session.Action(req.Action), session.InteractionPayload{
		ModificationText: req.ModificationText,
		Question:         req.Question,
	})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, InteractResponse{
		SessionID:   id,
		SectionName: result.SectionName,
		ActionTaken: result.ActionTaken,
		Result:      result.Result,
		IsComplete:  result.IsComplete,
	})
}

// handleFinalize generates the motivation letter and returns the full
// artifact set. Repeat calls on a completed session return the stored
// result.
func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	result, err := s.store.Finalize(r.Context(), id)
	if err != nil {
		s.logger.Error("finalize failed", zap.String("session_id", id), zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleLetterArtifact serves the persisted letter as plain text, exactly as
// written at finalize time.
func (s *Server) handleLetterArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.sessionCompleted(w, id) {
		return
	}

	data, err := s.artifacts.ReadLetter(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=motivation_letter_%s.txt", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleSuggestionsArtifact serves the persisted suggestion set as JSON.
func (s *Server) handleSuggestionsArtifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if !s.sessionCompleted(w, id) {
		return
	}

	data, err := s.artifacts.ReadSuggestions(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=cv_suggestions_%s.json", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sessionCompleted writes a 404 and returns false unless the session exists
// and has completed.
func (s *Server) sessionCompleted(w http.ResponseWriter, id string) bool {
	done, err := s.store.Completed(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return false
	}
	if !done {
		s.errorResponse(w, http.StatusNotFound, "session not completed")
		return false
	}
	return true
}
