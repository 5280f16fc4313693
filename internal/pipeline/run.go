// Package pipeline drives the background processing stages for one session:
// document ingestion, company research, and per-section CV analysis.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/cv-letter-agent/internal/analysis"
	"github.com/jonathan/cv-letter-agent/internal/research"
	"github.com/jonathan/cv-letter-agent/internal/session"
)

// DocumentParser extracts plain text from an uploaded document.
type DocumentParser interface {
	ExtractText(filename string, data []byte) (string, error)
}

// CompanyResearcher produces a research record from the job description.
type CompanyResearcher interface {
	Research(ctx context.Context, jobText string) (*research.Record, error)
}

// SectionAnalyzer produces one suggestion per CV section.
type SectionAnalyzer interface {
	AnalyzeSection(ctx context.Context, sectionName, sectionContent, jobText string, rec *research.Record, language string) (string, error)
}

// Runner executes the pipeline stages for a session off the request path.
// All results accumulate locally and publish to the store in a single write
// when every stage has succeeded; any failure discards them and marks the
// session failed.
type Runner struct {
	store       *session.Store
	parser      DocumentParser
	researcher  CompanyResearcher
	analyzer    SectionAnalyzer
	concurrency int
	logger      *zap.Logger
}

// NewRunner creates a Runner. concurrency caps the per-section analysis
// fan-out; values below one run the sections serially.
func NewRunner(store *session.Store, parser DocumentParser, researcher CompanyResearcher, analyzer SectionAnalyzer, concurrency int, log *zap.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		store:       store,
		parser:      parser,
		researcher:  researcher,
		analyzer:    analyzer,
		concurrency: concurrency,
		logger:      log,
	}
}

// Run executes the stages in order. It is meant to be called in its own
// goroutine; errors land on the session record, not in a return value.
func (r *Runner) Run(ctx context.Context, sessionID string, in session.Inputs) {
	results, err := r.execute(ctx, sessionID, in)
	if err != nil {
		r.logger.Error("pipeline failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		r.store.Fail(sessionID, err)
		return
	}

	if err := r.store.CompletePipeline(sessionID, *results); err != nil {
		r.logger.Error("failed to publish pipeline results",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (r *Runner) execute(ctx context.Context, sessionID string, in session.Inputs) (*session.PipelineResults, error) {
	// Stage 1: document ingestion.
	r.store.SetProgress(sessionID, session.StepParsingCV, 30)
	cvContent, err := r.parser.ExtractText(in.CVFilename, in.CVData)
	if err != nil {
		return nil, fmt.Errorf("CV parsing failed: %w", err)
	}
	r.logger.Debug("cv parsed",
		zap.String("session_id", sessionID),
		zap.Int("chars", len(cvContent)))

	// Stage 2: company research.
	r.store.SetProgress(sessionID, session.StepResearching, 40)
	companyResearch, err := r.researcher.Research(ctx, in.JobText)
	if err != nil {
		return nil, fmt.Errorf("company research failed: %w", err)
	}

	// Stage 3: per-section analysis. Sections share no state, so they fan
	// out under the configured concurrency cap; one failure cancels the rest.
	r.store.SetProgress(sessionID, session.StepAnalyzing, 60)
	extracted := analysis.ExtractSections(cvContent)

	suggestions := make([]session.SectionSuggestion, len(analysis.Sections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, name := range analysis.Sections {
		g.Go(func() error {
			content := analysis.SectionContent(extracted, name)
			text, err := r.analyzer.AnalyzeSection(gctx, name, content, in.JobText, companyResearch, in.Language)
			if err != nil {
				return fmt.Errorf("analysis of section %q failed: %w", name, err)
			}
			suggestions[i] = session.SectionSuggestion{
				SectionName:     name,
				OriginalContent: content,
				SuggestionText:  text,
				Status:          session.SuggestionPending,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	suggestionMap := make(map[string]session.SectionSuggestion, len(suggestions))
	for _, sg := range suggestions {
		suggestionMap[sg.SectionName] = sg
	}

	return &session.PipelineResults{
		CVContent:       cvContent,
		CompanyResearch: companyResearch,
		Suggestions:     suggestionMap,
	}, nil
}
