package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-letter-agent/internal/session"
)

func TestSaveLetter_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.SaveLetter("abc-123", "Dear team, here I am."))

	got, err := store.ReadLetter("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "Dear team, here I am.", string(got))
}

func TestSaveLetter_FileLayout(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.SaveLetter("abc-123", "letter"))
	require.NoError(t, store.SaveSuggestions("abc-123", nil))

	_, err := os.Stat(filepath.Join(dir, "motivation_letters", "letter_abc-123.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "cv_suggestions", "suggestions_abc-123.json"))
	assert.NoError(t, err)
}

func TestSaveSuggestions_RoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	suggestions := map[string]session.SectionSuggestion{
		"Experience": {
			SectionName:     "Experience",
			OriginalContent: "Built things.",
			SuggestionText:  "Quantify the things.",
			Status:          session.SuggestionApproved,
		},
	}
	require.NoError(t, store.SaveSuggestions("abc-123", suggestions))

	data, err := store.ReadSuggestions("abc-123")
	require.NoError(t, err)

	var got map[string]session.SectionSuggestion
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, suggestions, got)
}

func TestRead_MissingArtifact(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.ReadLetter("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.ReadSuggestions("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLetter_OverwriteKeepsLatest(t *testing.T) {
	store := NewStore(t.TempDir())

	require.NoError(t, store.SaveLetter("abc", "first"))
	require.NoError(t, store.SaveLetter("abc", "second"))

	got, err := store.ReadLetter("abc")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestWriteAtomic_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.SaveLetter("abc", "letter"))

	entries, err := os.ReadDir(filepath.Join(dir, "motivation_letters"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "letter_abc.txt", entries[0].Name())
}
