// Package artifacts persists the finalize-time outputs: the motivation
// letter as plain text and the reviewed suggestion set as JSON, one pair per
// session id, written exactly once and never mutated.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jonathan/cv-letter-agent/internal/session"
)

// ErrNotFound indicates the requested artifact has not been written.
var ErrNotFound = errors.New("artifact not found")

const (
	lettersSubdir     = "motivation_letters"
	suggestionsSubdir = "cv_suggestions"
)

// Store is a file-backed artifact store rooted at a base directory.
type Store struct {
	baseDir string
}

// NewStore creates an artifact store under baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) letterPath(sessionID string) string {
	return filepath.Join(s.baseDir, lettersSubdir, "letter_"+sessionID+".txt")
}

func (s *Store) suggestionsPath(sessionID string) string {
	return filepath.Join(s.baseDir, suggestionsSubdir, "suggestions_"+sessionID+".json")
}

// SaveLetter persists the motivation letter for a session.
func (s *Store) SaveLetter(sessionID, letter string) error {
	return writeAtomic(s.letterPath(sessionID), []byte(letter))
}

// SaveSuggestions persists the reviewed suggestion set for a session.
func (s *Store) SaveSuggestions(sessionID string, suggestions map[string]session.SectionSuggestion) error {
	data, err := json.MarshalIndent(suggestions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}
	return writeAtomic(s.suggestionsPath(sessionID), data)
}

// ReadLetter returns the persisted letter bytes exactly as written.
func (s *Store) ReadLetter(sessionID string) ([]byte, error) {
	data, err := os.ReadFile(s.letterPath(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// ReadSuggestions returns the persisted suggestion JSON exactly as written.
func (s *Store) ReadSuggestions(sessionID string) ([]byte, error) {
	data, err := os.ReadFile(s.suggestionsPath(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// writeAtomic publishes content via a temp file and rename so readers never
// see a partially written artifact.
func writeAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return fmt.Errorf("failed to create artifact temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	return nil
}
