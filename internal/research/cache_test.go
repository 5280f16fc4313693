package research

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme_gmbh", normalizeName("  Acme GmbH "))
	assert.Equal(t, "oreilly_media_inc", normalizeName("O'Reilly Media, Inc."))
	assert.Equal(t, "big-co", normalizeName("Big-Co"))
	assert.Equal(t, "unknown", normalizeName("???"))
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir(), 7*24*time.Hour)

	rec := &Record{
		CompanyName:      "Acme GmbH",
		ResearchDate:     time.Now(),
		DetailedResearch: "Acme builds rockets.",
		JobContext:       "backend role",
	}
	require.NoError(t, cache.Put("Acme GmbH", rec))

	got, ok := cache.Get("Acme GmbH")
	require.True(t, ok)
	assert.Equal(t, "Acme GmbH", got.CompanyName)
	assert.Equal(t, "Acme builds rockets.", got.DetailedResearch)
}

func TestCache_FileNaming(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, time.Hour)

	require.NoError(t, cache.Put("Acme GmbH", &Record{CompanyName: "Acme GmbH", ResearchDate: time.Now()}))

	_, err := os.Stat(filepath.Join(dir, "acme_gmbh_research.json"))
	assert.NoError(t, err)
}

func TestCache_MissAndCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	cache := NewCache(dir, time.Hour)

	_, ok := cache.Get("Nobody Ltd")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken_co_research.json"), []byte("{not json"), 0o644))
	_, ok = cache.Get("Broken Co")
	assert.False(t, ok)
}

func TestCache_ExpiredEntryTreatedAsAbsent(t *testing.T) {
	cache := NewCache(t.TempDir(), 7*24*time.Hour)

	rec := &Record{CompanyName: "Acme GmbH", ResearchDate: time.Now().Add(-8 * 24 * time.Hour)}
	require.NoError(t, cache.Put("Acme GmbH", rec))

	_, ok := cache.Get("Acme GmbH")
	assert.False(t, ok)
}

func TestCache_PutOverwrites(t *testing.T) {
	cache := NewCache(t.TempDir(), time.Hour)

	require.NoError(t, cache.Put("Acme", &Record{CompanyName: "Acme", ResearchDate: time.Now(), DetailedResearch: "old"}))
	require.NoError(t, cache.Put("Acme", &Record{CompanyName: "Acme", ResearchDate: time.Now(), DetailedResearch: "new"}))

	got, ok := cache.Get("Acme")
	require.True(t, ok)
	assert.Equal(t, "new", got.DetailedResearch)
}
