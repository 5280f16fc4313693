package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinJobTextLength is the minimum accepted job description length.
const MinJobTextLength = 50

// Pipeline step labels surfaced through status polling.
const (
	StepWaitingForInput  = "waiting_for_input"
	StepParsingCV        = "parsing_cv"
	StepResearching      = "researching_company"
	StepAnalyzing        = "analyzing_cv"
	StepSectionApproval  = "cv_section_approval"
	StepGeneratingLetter = "generating_motivation_letter"
	StepCompleted        = "completed"
)

// Store owns every session record and is the single mutation point for them.
// Map membership is guarded by the store mutex; each record carries its own
// lock so sessions proceed fully in parallel.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*record

	assistant Assistant
	letters   LetterGenerator
	artifacts ArtifactWriter
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore creates a Store. The assistant serves modify/ask interactions, the
// generator and artifact writer serve finalize.
func NewStore(assistant Assistant, letters LetterGenerator, artifacts ArtifactWriter, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		sessions:  make(map[string]*record),
		assistant: assistant,
		letters:   letters,
		artifacts: artifacts,
		logger:    log,
		now:       time.Now,
	}
}

// Create allocates a new session in the initialized state.
func (s *Store) Create() Snapshot {
	r := &record{
		id:        uuid.New().String(),
		status:    StatusInitialized,
		step:      StepWaitingForInput,
		progress:  0,
		message:   "Session created successfully",
		createdAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[r.id] = r
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session_id", r.id))
	return r.snapshotLocked()
}

func (s *Store) get(id string) (*record, error) {
	s.mu.RLock()
	r, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, &ErrSessionNotFound{ID: id}
	}
	return r, nil
}

// Snapshot returns a copy of the session's visible state.
func (s *Store) Snapshot(id string) (Snapshot, error) {
	r, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(), nil
}

// StartProcessing validates the inputs and transitions the session from
// initialized to processing. Validation failures reject before any state
// changes, so nothing gets scheduled for bad input. A second call on the
// same session is a conflict: exactly one pipeline run may exist per id.
func (s *Store) StartProcessing(id string, in Inputs) (Snapshot, error) {
	if len(strings.TrimSpace(in.JobText)) < MinJobTextLength {
		return Snapshot{}, &ErrValidation{Field: "job_text", Message: "job description must be at least 50 characters long"}
	}
	if len(in.CVData) == 0 {
		return Snapshot{}, &ErrValidation{Field: "cv_file", Message: "CV file is empty"}
	}

	r, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusInitialized {
		return Snapshot{}, &ErrConflict{SessionID: id, Status: r.status, Op: "start processing for"}
	}

	r.status = StatusProcessing
	r.step = StepParsingCV
	r.progress = 10
	r.message = "Application processing started"
	r.inputs = in

	s.logger.Info("session processing started",
		zap.String("session_id", id),
		zap.String("cv_file", in.CVFilename),
		zap.String("language", in.Language))
	return r.snapshotLocked(), nil
}

// SetProgress records pipeline position. It only applies while the session is
// processing and never moves progress backward.
func (s *Store) SetProgress(id, step string, progress int) {
	r, err := s.get(id)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusProcessing {
		return
	}
	r.step = step
	if progress > r.progress {
		r.progress = progress
	}
}

// CompletePipeline publishes the full pipeline output and transitions the
// session to waiting_approval. The results land in one write; readers never
// observe a partially populated stage.
func (s *Store) CompletePipeline(id string, results PipelineResults) error {
	r, err := s.get(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusProcessing {
		return &ErrConflict{SessionID: id, Status: r.status, Op: "complete pipeline for"}
	}

	r.results = &results
	r.status = StatusWaitingApproval
	r.step = StepSectionApproval
	r.progress = 80
	r.message = "CV analysis ready for review"

	s.logger.Info("session awaiting approval",
		zap.String("session_id", id),
		zap.Int("sections", len(results.Suggestions)))
	return nil
}

// Fail transitions a session to the terminal error state, recording the
// cause. Terminal sessions are left untouched.
func (s *Store) Fail(id string, cause error) {
	r, err := s.get(id)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}

	r.status = StatusError
	r.errCause = cause.Error()
	r.message = "Processing failed: " + cause.Error()

	s.logger.Error("session failed",
		zap.String("session_id", id),
		zap.Error(cause))
}

// Interact applies one review action to one section of a session in
// waiting_approval. Gateway-backed actions release the session lock for the
// duration of the call and re-validate before applying the outcome, so status
// polling never blocks behind a slow model and a concurrent finalize wins.
func (s *Store) Interact(ctx context.Context, id, sectionName string, action Action, payload InteractionPayload) (InteractionResult, error) {
	switch action {
	case ActionApprove, ActionModify, ActionAsk, ActionSkip:
	default:
		return InteractionResult{}, &ErrInvalidAction{Action: string(action)}
	}
	if action == ActionModify && strings.TrimSpace(payload.ModificationText) == "" {
		return InteractionResult{}, &ErrValidation{Field: "modification_text", Message: "modification text required for 'modify' action"}
	}
	if action == ActionAsk && strings.TrimSpace(payload.Question) == "" {
		return InteractionResult{}, &ErrValidation{Field: "question", Message: "question required for 'ask' action"}
	}

	r, err := s.get(id)
	if err != nil {
		return InteractionResult{}, err
	}

	r.mu.Lock()
	if r.status != StatusWaitingApproval {
		status := r.status
		r.mu.Unlock()
		return InteractionResult{}, &ErrConflict{SessionID: id, Status: status, Op: "interact with"}
	}
	suggestion, ok := r.results.Suggestions[sectionName]
	if !ok {
		r.mu.Unlock()
		return InteractionResult{}, &ErrSectionNotFound{SessionID: id, Section: sectionName}
	}

	switch action {
	case ActionApprove:
		suggestion.Status = SuggestionApproved
		r.results.Suggestions[sectionName] = suggestion
		r.mu.Unlock()
		return s.interactionResult(r, sectionName, action, "Section '"+sectionName+"' approved"), nil

	case ActionSkip:
		suggestion.Status = SuggestionSkipped
		r.results.Suggestions[sectionName] = suggestion
		r.mu.Unlock()
		return s.interactionResult(r, sectionName, action, "Section '"+sectionName+"' skipped"), nil

	case ActionModify:
		current := suggestion.SuggestionText
		r.mu.Unlock()

		modified, err := s.assistant.ModifySuggestion(ctx, sectionName, current, payload.ModificationText)
		if err != nil {
			return InteractionResult{}, &ErrUpstream{Op: "suggestion modification", Err: err}
		}

		r.mu.Lock()
		if r.status != StatusWaitingApproval {
			status := r.status
			r.mu.Unlock()
			return InteractionResult{}, &ErrConflict{SessionID: id, Status: status, Op: "interact with"}
		}
		suggestion = r.results.Suggestions[sectionName]
		suggestion.SuggestionText = modified
		suggestion.Status = SuggestionModified
		r.results.Suggestions[sectionName] = suggestion
		r.mu.Unlock()
		return s.interactionResult(r, sectionName, action, modified), nil

	default: // ActionAsk
		current := suggestion.SuggestionText
		r.mu.Unlock()

		answer, err := s.assistant.AnswerQuestion(ctx, sectionName, current, payload.Question)
		if err != nil {
			return InteractionResult{}, &ErrUpstream{Op: "question answering", Err: err}
		}
		// Answers are ephemeral: nothing on the session changes.
		return s.interactionResult(r, sectionName, action, answer), nil
	}
}

// interactionResult assembles the response, computing completeness from the
// current suggestion states.
func (s *Store) interactionResult(r *record, sectionName string, action Action, result string) InteractionResult {
	r.mu.Lock()
	complete := true
	if r.results != nil {
		for _, sg := range r.results.Suggestions {
			if sg.Status == SuggestionPending {
				complete = false
				break
			}
		}
	}
	r.mu.Unlock()

	return InteractionResult{
		SectionName: sectionName,
		ActionTaken: action,
		Result:      result,
		IsComplete:  complete,
	}
}

// Finalize generates and persists the motivation letter, completing the
// session. Whatever review state each section is in is what gets used.
// Finalize is idempotent: calling it on a completed session returns the
// stored result without regenerating anything.
func (s *Store) Finalize(ctx context.Context, id string) (FinalResult, error) {
	r, err := s.get(id)
	if err != nil {
		return FinalResult{}, err
	}

	r.mu.Lock()
	if r.status == StatusCompleted {
		result := *r.final
		result.Suggestions = copySuggestions(r.final.Suggestions)
		r.mu.Unlock()
		return result, nil
	}
	if r.status != StatusWaitingApproval {
		status := r.status
		r.mu.Unlock()
		return FinalResult{}, &ErrConflict{SessionID: id, Status: status, Op: "finalize"}
	}

	r.status = StatusFinalizing
	r.step = StepGeneratingLetter
	r.progress = 90
	r.message = "Generating motivation letter"

	jobText := r.inputs.JobText
	sections := copySuggestions(r.results.Suggestions)
	companyResearch := r.results.CompanyResearch
	createdAt := r.createdAt
	r.mu.Unlock()

	letterText, err := s.letters.GenerateLetter(ctx, jobText, sections, companyResearch)
	if err != nil {
		s.Fail(id, err)
		return FinalResult{}, err
	}

	if err := s.artifacts.SaveLetter(id, letterText); err != nil {
		s.Fail(id, err)
		return FinalResult{}, err
	}
	if err := s.artifacts.SaveSuggestions(id, sections); err != nil {
		s.Fail(id, err)
		return FinalResult{}, err
	}

	completedAt := s.now()
	final := FinalResult{
		SessionID:         id,
		CompletedAt:       completedAt,
		CompanyResearch:   companyResearch,
		Suggestions:       sections,
		MotivationLetter:  letterText,
		ProcessingSeconds: completedAt.Sub(createdAt).Seconds(),
	}

	r.mu.Lock()
	r.final = &final
	r.status = StatusCompleted
	r.step = StepCompleted
	r.progress = 100
	r.message = "Processing completed"
	r.mu.Unlock()

	s.logger.Info("session completed",
		zap.String("session_id", id),
		zap.Float64("processing_seconds", final.ProcessingSeconds))

	result := final
	result.Suggestions = copySuggestions(final.Suggestions)
	return result, nil
}

// Completed reports whether the session has reached the completed state.
func (s *Store) Completed(id string) (bool, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return false, err
	}
	return snap.Status == StatusCompleted, nil
}
