// Package research produces company research records for job applications.
//
// Research is a gateway call grounded in the job description; results are
// cached on disk per normalized company name so repeat applications to the
// same company within the retention window reuse the earlier record.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/cv-letter-agent/internal/llm"
)

// Record is one company's research result.
type Record struct {
	CompanyName      string    `json:"company_name"`
	ResearchDate     time.Time `json:"research_date"`
	DetailedResearch string    `json:"detailed_research"`
	JobContext       string    `json:"job_profile_context"`
}

// Options configures a Researcher.
type Options struct {
	ExtractionTemperature float64
	ResearchTemperature   float64
	CacheEnabled          bool
}

// Researcher extracts the company identity from a job description and
// produces (or reuses) a research record for it.
type Researcher struct {
	client llm.Client
	cache  *Cache
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewResearcher creates a Researcher. The cache may be nil when caching is
// disabled.
func NewResearcher(client llm.Client, cache *Cache, opts Options, log *zap.Logger) *Researcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Researcher{
		client: client,
		cache:  cache,
		opts:   opts,
		logger: log,
		now:    time.Now,
	}
}

// Research returns a company research record for the job description,
// cache-first. A failed cache write is logged and otherwise ignored.
func (r *Researcher) Research(ctx context.Context, jobText string) (*Record, error) {
	company, err := r.extractCompanyName(ctx, jobText)
	if err != nil {
		return nil, fmt.Errorf("company name extraction failed: %w", err)
	}

	if r.opts.CacheEnabled && r.cache != nil {
		if rec, ok := r.cache.Get(company); ok {
			r.logger.Info("using cached company research",
				zap.String("company", company),
				zap.Time("research_date", rec.ResearchDate))
			return rec, nil
		}
	}

	r.logger.Info("researching company", zap.String("company", company))
	rec, err := r.performResearch(ctx, company, jobText)
	if err != nil {
		return nil, err
	}

	if r.opts.CacheEnabled && r.cache != nil {
		if err := r.cache.Put(company, rec); err != nil {
			r.logger.Warn("failed to cache company research",
				zap.String("company", company),
				zap.Error(err))
		}
	}

	return rec, nil
}

func (r *Researcher) extractCompanyName(ctx context.Context, jobText string) (string, error) {
	prompt := fmt.Sprintf(`Extract the company name from this job profile. Return ONLY the company name, nothing else.

Job Profile:
%s

Company Name:`, clip(jobText, 1000))

	name, err := r.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: r.opts.ExtractionTemperature,
		MaxTokens:   50,
	})
	if err != nil {
		return "", err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("gateway returned an empty company name")
	}
	return name, nil
}

func (r *Researcher) performResearch(ctx context.Context, company, jobText string) (*Record, error) {
	prompt := fmt.Sprintf(`You are an expert company researcher. Research %s comprehensively for a job application context.

JOB PROFILE CONTEXT:
%s

Provide detailed research covering:

1. COMPANY OVERVIEW: industry, market position, size, core business areas.
2. CULTURE & VALUES: mission, core values, work environment, employee value proposition.
3. RECENT DEVELOPMENTS: major news, new initiatives, partnerships, expansions.
4. HIRING PREFERENCES: backgrounds and skills they value, career development.
5. COMMUNICATION STYLE: company tone, brand voice characteristics.
6. COMPETITIVE ADVANTAGES: what sets them apart, innovation areas.

Be specific, factual, and focus on information relevant for tailoring job applications.
Avoid generic corporate speak.`, company, jobText)

	detail, err := r.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: r.opts.ResearchTemperature,
		MaxTokens:   3000,
	})
	if err != nil {
		return nil, fmt.Errorf("company research failed: %w", err)
	}

	return &Record{
		CompanyName:      company,
		ResearchDate:     r.now(),
		DetailedResearch: detail,
		JobContext:       clip(jobText, 500),
	}, nil
}

// clip truncates s to at most n runes, marking the cut.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
