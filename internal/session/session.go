// Package session owns the processing-session records and the interaction
// state machine that coordinates the background pipeline, per-section review,
// and finalization.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/cv-letter-agent/internal/research"
)

// Status is the lifecycle state of a session. Transitions are monotone along
// initialized -> processing -> waiting_approval -> finalizing -> completed,
// with error reachable from any non-terminal state and itself terminal.
type Status string

// Session lifecycle states.
const (
	StatusInitialized     Status = "initialized"
	StatusProcessing      Status = "processing"
	StatusWaitingApproval Status = "waiting_approval"
	StatusFinalizing      Status = "finalizing"
	StatusCompleted       Status = "completed"
	StatusError           Status = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// SuggestionStatus is the review state of one CV section suggestion.
type SuggestionStatus string

// Section suggestion review states.
const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionModified SuggestionStatus = "modified"
	SuggestionSkipped  SuggestionStatus = "skipped"
)

// SectionSuggestion is one CV section's suggestion payload and review state.
type SectionSuggestion struct {
	SectionName     string           `json:"section_name"`
	OriginalContent string           `json:"original_content"`
	SuggestionText  string           `json:"suggestion_text"`
	Status          SuggestionStatus `json:"status"`
}

// Inputs are the immutable per-session inputs captured when processing starts.
type Inputs struct {
	JobText    string
	CVFilename string
	CVData     []byte
	Language   string
}

// PipelineResults is the output of a fully successful background pipeline.
// It is written to the session in one operation when the pipeline completes;
// a failed pipeline publishes nothing.
type PipelineResults struct {
	CVContent       string
	CompanyResearch *research.Record
	Suggestions     map[string]SectionSuggestion
}

// FinalResult is the artifact set produced at finalize time.
type FinalResult struct {
	SessionID         string                       `json:"session_id"`
	CompletedAt       time.Time                    `json:"timestamp"`
	CompanyResearch   *research.Record             `json:"company_research"`
	Suggestions       map[string]SectionSuggestion `json:"cv_suggestions"`
	MotivationLetter  string                       `json:"motivation_letter"`
	ProcessingSeconds float64                      `json:"processing_time_seconds"`
}

// Snapshot is a point-in-time copy of a session's externally visible state.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Status    Status    `json:"status"`
	Step      string    `json:"current_step"`
	Progress  int       `json:"progress_percentage"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

// Action is a per-section interaction verb.
type Action string

// Interaction actions.
const (
	ActionApprove Action = "approve"
	ActionModify  Action = "modify"
	ActionAsk     Action = "ask"
	ActionSkip    Action = "skip"
)

// InteractionPayload carries the action-specific fields of an interaction.
type InteractionPayload struct {
	ModificationText string
	Question         string
}

// InteractionResult is returned from a successful interaction.
type InteractionResult struct {
	SectionName string `json:"section_name"`
	ActionTaken Action `json:"action_taken"`
	Result      string `json:"result"`
	IsComplete  bool   `json:"is_complete"`
}

// Assistant serves the gateway-backed interaction calls (modify, ask).
type Assistant interface {
	ModifySuggestion(ctx context.Context, sectionName, currentSuggestion, modificationRequest string) (string, error)
	AnswerQuestion(ctx context.Context, sectionName, currentSuggestion, question string) (string, error)
}

// LetterGenerator produces the motivation letter at finalize time.
type LetterGenerator interface {
	GenerateLetter(ctx context.Context, jobText string, sections map[string]SectionSuggestion, rec *research.Record) (string, error)
}

// ArtifactWriter persists the finalize-time artifacts.
type ArtifactWriter interface {
	SaveLetter(sessionID, letter string) error
	SaveSuggestions(sessionID string, suggestions map[string]SectionSuggestion) error
}

// record is the store-internal session state. All access goes through the
// record mutex; readers copy, they never hand out live references.
type record struct {
	mu sync.Mutex

	id        string
	status    Status
	step      string
	progress  int
	message   string
	createdAt time.Time
	errCause  string

	inputs  Inputs
	results *PipelineResults
	final   *FinalResult
}

// snapshotLocked builds a Snapshot; callers hold r.mu.
func (r *record) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID: r.id,
		Status:    r.status,
		Step:      r.step,
		Progress:  r.progress,
		Message:   r.message,
		CreatedAt: r.createdAt,
		Error:     r.errCause,
	}
}

// copySuggestions deep-copies a suggestion map.
func copySuggestions(in map[string]SectionSuggestion) map[string]SectionSuggestion {
	out := make(map[string]SectionSuggestion, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
