package research

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-letter-agent/internal/llm"
)

// scriptedClient answers the extraction prompt with a company name and every
// other prompt with the research body, counting research calls.
type scriptedClient struct {
	company       string
	body          string
	researchCalls int
	extractErr    error
	researchErr   error
}

func (c *scriptedClient) ChatCompletion(_ context.Context, req llm.CompletionRequest) (string, error) {
	if strings.Contains(req.Messages[0].Content, "Extract the company name") {
		if c.extractErr != nil {
			return "", c.extractErr
		}
		return c.company + "\n", nil
	}
	c.researchCalls++
	if c.researchErr != nil {
		return "", c.researchErr
	}
	return c.body, nil
}

const jobText = "Acme GmbH is hiring a backend engineer to build rocket telemetry services in Berlin."

func TestResearch_ProducesRecord(t *testing.T) {
	client := &scriptedClient{company: "Acme GmbH", body: "Acme builds rockets."}
	r := NewResearcher(client, nil, Options{CacheEnabled: false}, nil)

	rec, err := r.Research(context.Background(), jobText)
	require.NoError(t, err)
	assert.Equal(t, "Acme GmbH", rec.CompanyName)
	assert.Equal(t, "Acme builds rockets.", rec.DetailedResearch)
	assert.Equal(t, jobText, rec.JobContext)
	assert.False(t, rec.ResearchDate.IsZero())
}

func TestResearch_CacheHitSkipsGateway(t *testing.T) {
	client := &scriptedClient{company: "Acme GmbH", body: "fresh research"}
	cache := NewCache(t.TempDir(), 7*24*time.Hour)
	r := NewResearcher(client, cache, Options{CacheEnabled: true}, nil)

	first, err := r.Research(context.Background(), jobText)
	require.NoError(t, err)
	assert.Equal(t, 1, client.researchCalls)

	second, err := r.Research(context.Background(), jobText)
	require.NoError(t, err)
	assert.Equal(t, 1, client.researchCalls)
	assert.Equal(t, first.DetailedResearch, second.DetailedResearch)
}

func TestResearch_ExpiredCacheRegenerates(t *testing.T) {
	client := &scriptedClient{company: "Acme GmbH", body: "fresh research"}
	cache := NewCache(t.TempDir(), 7*24*time.Hour)
	stale := &Record{
		CompanyName:      "Acme GmbH",
		ResearchDate:     time.Now().Add(-8 * 24 * time.Hour),
		DetailedResearch: "stale research",
	}
	require.NoError(t, cache.Put("Acme GmbH", stale))

	r := NewResearcher(client, cache, Options{CacheEnabled: true}, nil)
	rec, err := r.Research(context.Background(), jobText)
	require.NoError(t, err)
	assert.Equal(t, 1, client.researchCalls)
	assert.Equal(t, "fresh research", rec.DetailedResearch)
}

func TestResearch_CacheDisabledAlwaysRegenerates(t *testing.T) {
	client := &scriptedClient{company: "Acme GmbH", body: "research"}
	cache := NewCache(t.TempDir(), 7*24*time.Hour)
	r := NewResearcher(client, cache, Options{CacheEnabled: false}, nil)

	_, err := r.Research(context.Background(), jobText)
	require.NoError(t, err)
	_, err = r.Research(context.Background(), jobText)
	require.NoError(t, err)
	assert.Equal(t, 2, client.researchCalls)
}

func TestResearch_ExtractionFailure(t *testing.T) {
	client := &scriptedClient{extractErr: errors.New("gateway down")}
	r := NewResearcher(client, nil, Options{}, nil)

	_, err := r.Research(context.Background(), jobText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company name extraction failed")
}

func TestResearch_EmptyCompanyName(t *testing.T) {
	client := &scriptedClient{company: "  "}
	r := NewResearcher(client, nil, Options{}, nil)

	_, err := r.Research(context.Background(), jobText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty company name")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcde...", clip("abcdefgh", 5))
}
