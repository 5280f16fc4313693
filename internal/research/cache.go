package research

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// Cache is a file-per-company store for research records. Entries older than
// the retention window are treated as absent. Writes go through a temp file
// and an atomic rename so a concurrent reader never sees a partial record.
type Cache struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewCache creates a cache rooted at dir with the given retention window.
func NewCache(dir string, maxAge time.Duration) *Cache {
	return &Cache{
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// normalizeName maps a company name to a stable cache key.
func normalizeName(company string) string {
	key := strings.ToLower(strings.TrimSpace(company))
	key = strings.ReplaceAll(key, " ", "_")
	key = unsafeNameChars.ReplaceAllString(key, "")
	if key == "" {
		key = "unknown"
	}
	return key
}

func (c *Cache) path(company string) string {
	return filepath.Join(c.dir, normalizeName(company)+"_research.json")
}

// Get returns a cached record for the company if one exists and is still
// within the retention window.
func (c *Cache) Get(company string) (*Record, bool) {
	data, err := os.ReadFile(c.path(company))
	if err != nil {
		return nil, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if rec.ResearchDate.IsZero() || c.now().Sub(rec.ResearchDate) >= c.maxAge {
		return nil, false
	}
	return &rec, true
}

// Put stores a record for later reuse. Last writer wins on contention.
func (c *Cache) Put(company string, rec *Record) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode research record: %w", err)
	}

	target := c.path(company)
	tmp, err := os.CreateTemp(c.dir, ".research-*")
	if err != nil {
		return fmt.Errorf("failed to create cache temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}
