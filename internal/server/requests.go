package server

import (
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-letter-agent/internal/session"
)

// SupportedLanguages are the accepted CV language preferences.
var SupportedLanguages = []string{"English", "German", "French", "Spanish"}

// InteractRequest is the body for POST /sessions/{id}/interact.
type InteractRequest struct {
	SectionName      string `json:"section_name" validate:"required"`
	Action           string `json:"action" validate:"required,oneof=approve modify ask skip"`
	ModificationText string `json:"modification_text,omitempty"`
	Question         string `json:"question,omitempty"`
}

// Validate validates the InteractRequest using the validator.
func (r *InteractRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// InteractResponse is the body returned from a successful interaction.
type InteractResponse struct {
	SessionID   string         `json:"session_id"`
	SectionName string         `json:"section_name"`
	ActionTaken session.Action `json:"action_taken"`
	Result      string         `json:"result"`
	IsComplete  bool           `json:"is_complete"`
}

// StatusResponse is the status shape shared by session creation and polling.
type StatusResponse struct {
	SessionID          string `json:"session_id"`
	Status             string `json:"status"`
	CurrentStep        string `json:"current_step"`
	ProgressPercentage int    `json:"progress_percentage"`
	Message            string `json:"message"`
	Error              string `json:"error,omitempty"`
}

func statusResponse(snap session.Snapshot) StatusResponse {
	return StatusResponse{
		SessionID:          snap.SessionID,
		Status:             string(snap.Status),
		CurrentStep:        snap.Step,
		ProgressPercentage: snap.Progress,
		Message:            snap.Message,
		Error:              snap.Error,
	}
}

func languageSupported(language string) bool {
	for _, l := range SupportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}
