// Package analysis produces per-section CV improvement suggestions and
// serves the follow-up interactions (modification requests and questions).
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/cv-letter-agent/internal/llm"
	"github.com/jonathan/cv-letter-agent/internal/research"
)

// Options configures an Analyzer.
type Options struct {
	AnalysisTemperature float64
	MaxTokens           int
}

// Analyzer is a stateless wrapper around the gateway for CV section work.
type Analyzer struct {
	client llm.Client
	opts   Options
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(client llm.Client, opts Options) *Analyzer {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1500
	}
	return &Analyzer{client: client, opts: opts}
}

// AnalyzeSection requests one suggestion payload for a single CV section.
func (a *Analyzer) AnalyzeSection(ctx context.Context, sectionName, sectionContent, jobText string, rec *research.Record, language string) (string, error) {
	companyName := "Unknown"
	researchDetail := ""
	if rec != nil {
		companyName = rec.CompanyName
		researchDetail = rec.DetailedResearch
	}

	prompt := fmt.Sprintf(`You are a brutal but constructive CV optimization expert specializing in %s CVs.

ANALYSIS CONTEXT:
- Company: %s
- Section: %s
- Language: %s

JOB PROFILE:
%s

COMPANY RESEARCH:
%s

CURRENT CV SECTION - %s:
%s

CORE PRINCIPLES:
- Honest, bold, non-generic, no cliches
- ATS compliant with keyword alignment
- Highest impact first, short and skimmable
- STAR pattern for bullet points
- Never fabricate or exaggerate

SPECIFIC INSTRUCTIONS FOR %s:
%s

Provide specific, actionable, and brutally honest suggestions for this %s section.
Focus on ATS optimization, relevance to the job requirements, space efficiency,
and content improvements. Give concrete examples of improved wording.`,
		language, companyName, sectionName, language,
		clipRunes(jobText, 1500), clipRunes(researchDetail, 1000),
		sectionName, sectionContent,
		sectionName, sectionInstructions(sectionName), sectionName)

	return a.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: a.opts.AnalysisTemperature,
		MaxTokens:   a.opts.MaxTokens,
	})
}

// ModifySuggestion reworks an earlier suggestion according to the caller's
// modification request.
func (a *Analyzer) ModifySuggestion(ctx context.Context, sectionName, currentSuggestion, modificationRequest string) (string, error) {
	prompt := fmt.Sprintf(`You are a CV optimization expert. Modify the suggestions for the %s section based on the user's request.

ORIGINAL SUGGESTIONS:
%s

USER'S MODIFICATION REQUEST:
%s

Provide updated suggestions that incorporate the user's feedback while
maintaining professional quality, ATS optimization, relevance to the target
role, and an honest constructive tone.

Modified suggestions:`, sectionName, currentSuggestion, modificationRequest)

	return a.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: a.opts.AnalysisTemperature,
		MaxTokens:   1000,
	})
}

// AnswerQuestion answers a caller's question about a section's suggestions.
// The answer is ephemeral and never stored on the session.
func (a *Analyzer) AnswerQuestion(ctx context.Context, sectionName, currentSuggestion, question string) (string, error) {
	prompt := fmt.Sprintf(`You are a helpful CV expert. Answer the user's question about the %s section suggestions.

SECTION SUGGESTIONS:
%s

USER'S QUESTION:
%s

Provide a clear, specific, actionable answer that explains the reasoning
behind the suggestions or clarifies the confusion.

Answer:`, sectionName, currentSuggestion, question)

	return a.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   500,
	})
}

func sectionInstructions(sectionName string) string {
	instructions := map[string]string{
		"Professional Profile": `Keep it to roughly 32 words, spell out "and", show a clear
value proposition, and name two or three strengths relevant to the role.`,
		"Experience": `Reverse chronological order, STAR-patterned bullets, quantified
achievements, visible progression of responsibility.`,
		"Education": `Most recent or relevant degree first, relevant coursework when it
matches the requirements, GPA only when impressive.`,
		"Skills": `Categorize logically, prioritize and mirror keywords from the job
posting, drop outdated or irrelevant skills.`,
		"Projects": `Focus on projects relevant to the target role, quantify impact,
show leadership and initiative.`,
		"Certifications": `Most relevant first with completion dates, drop expired or
irrelevant ones.`,
	}
	if instr, ok := instructions[sectionName]; ok {
		return strings.TrimSpace(instr)
	}
	return "Optimize for relevance and impact."
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
