// Package letter generates the motivation letter from reviewed CV sections
// and company research.
package letter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/cv-letter-agent/internal/llm"
	"github.com/jonathan/cv-letter-agent/internal/research"
	"github.com/jonathan/cv-letter-agent/internal/session"
)

// Options configures a Generator.
type Options struct {
	Temperature     float64
	MinWords        int
	MaxWords        int
	MaxAdjustPasses int // word-count adjustment rounds before settling
	MaxTokens       int
}

// Generator produces motivation letters through a draft, a bounded word-count
// adjustment loop, and a final style pass. Each gateway call is independent;
// if the letter never lands in the word band, the closest draft wins.
type Generator struct {
	client llm.Client
	opts   Options
	logger *zap.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(client llm.Client, opts Options, log *zap.Logger) *Generator {
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 2000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{client: client, opts: opts, logger: log}
}

// GenerateLetter implements session.LetterGenerator.
func (g *Generator) GenerateLetter(ctx context.Context, jobText string, sections map[string]session.SectionSuggestion, rec *research.Record) (string, error) {
	draft, err := g.initialDraft(ctx, jobText, sections, rec)
	if err != nil {
		return "", fmt.Errorf("letter draft failed: %w", err)
	}

	adjusted, err := g.adjustLength(ctx, draft)
	if err != nil {
		return "", err
	}

	final, err := g.humanize(ctx, adjusted)
	if err != nil {
		return "", fmt.Errorf("letter style pass failed: %w", err)
	}
	return final, nil
}

func (g *Generator) initialDraft(ctx context.Context, jobText string, sections map[string]session.SectionSuggestion, rec *research.Record) (string, error) {
	companyName := "Unknown"
	researchDetail := ""
	if rec != nil {
		companyName = rec.CompanyName
		researchDetail = rec.DetailedResearch
	}

	prompt := fmt.Sprintf(`You are an expert motivation letter writer specializing in bold, authentic, and compelling letters.

CONTEXT:
- Target Company: %s
- Target Role: based on the job profile below

JOB PROFILE:
%s

COMPANY RESEARCH:
%s

FINALIZED CV SECTIONS:
%s

WRITING STYLE:
- Bold, warm, natural, genuine; show personality and true voice
- Simple, clear, skimmable language; no contractions
- Avoid generic, ambiguous, or overly technical text

STRUCTURE:
1. Opening hook showing genuine human interest in the role.
2. Why this company, grounded in the research above.
3. Why choose me, using factual data from the CV sections.
4. What I want to learn, turning gaps into curiosity.
Close with a short, confident handshake line.

WORD COUNT: target exactly %d-%d words.
FORMAT: no "Dear" opening, no "Best regards" closing.

Generate the motivation letter now:`,
		companyName, jobText, researchDetail, formatSections(sections),
		g.opts.MinWords, g.opts.MaxWords)

	return g.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
}

// adjustLength runs bounded expand/compress passes toward the word band.
// Gateway failures mid-loop fall back to the best draft so far rather than
// failing a letter that already exists.
func (g *Generator) adjustLength(ctx context.Context, draft string) (string, error) {
	best := draft
	bestDistance := g.bandDistance(countWords(draft))

	current := draft
	for pass := 0; pass < g.opts.MaxAdjustPasses; pass++ {
		words := countWords(current)
		if words >= g.opts.MinWords && words <= g.opts.MaxWords {
			return current, nil
		}

		g.logger.Debug("adjusting letter length",
			zap.Int("pass", pass+1),
			zap.Int("words", words),
			zap.Int("min", g.opts.MinWords),
			zap.Int("max", g.opts.MaxWords))

		var next string
		var err error
		if words < g.opts.MinWords {
			next, err = g.expand(ctx, current, g.opts.MinWords-words)
		} else {
			next, err = g.compress(ctx, current, words-g.opts.MaxWords)
		}
		if err != nil {
			g.logger.Warn("length adjustment pass failed, keeping best draft", zap.Error(err))
			return best, nil
		}

		current = next
		if d := g.bandDistance(countWords(current)); d < bestDistance {
			best, bestDistance = current, d
		}
	}

	if words := countWords(current); words >= g.opts.MinWords && words <= g.opts.MaxWords {
		return current, nil
	}
	return best, nil
}

func (g *Generator) expand(ctx context.Context, letter string, wordsNeeded int) (string, error) {
	prompt := fmt.Sprintf(`Expand this motivation letter by approximately %d words while keeping the
same tone, authenticity, and key messages. Target %d-%d words total. Add
meaningful content, not filler.

Current letter:
%s`, wordsNeeded, g.opts.MinWords, g.opts.MaxWords, letter)

	return g.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.4,
		MaxTokens:   g.opts.MaxTokens,
	})
}

func (g *Generator) compress(ctx context.Context, letter string, wordsToRemove int) (string, error) {
	prompt := fmt.Sprintf(`Compress this motivation letter by approximately %d words while keeping all
key messages, the same tone, and logical flow. Target %d-%d words total.
Remove redundancy, not core content.

Current letter:
%s`, wordsToRemove, g.opts.MinWords, g.opts.MaxWords, letter)

	return g.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.4,
		MaxTokens:   g.opts.MaxTokens,
	})
}

func (g *Generator) humanize(ctx context.Context, letter string) (string, error) {
	prompt := fmt.Sprintf(`Humanize this motivation letter so it sounds natural, engaging, and warm
while staying professional. Remove robotic or overly formal phrasing, keep the
meaning intact, and avoid typical LLM patterns and cliches.

Current text:
%s

Return the humanized version:`, letter)

	return g.client.ChatCompletion(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Temperature: 0.5,
		MaxTokens:   g.opts.MaxTokens,
	})
}

func (g *Generator) bandDistance(words int) int {
	switch {
	case words < g.opts.MinWords:
		return g.opts.MinWords - words
	case words > g.opts.MaxWords:
		return words - g.opts.MaxWords
	default:
		return 0
	}
}

// formatSections renders reviewed sections for the prompt. Skipped sections
// are passed through but flagged so the model can de-emphasize them.
func formatSections(sections map[string]session.SectionSuggestion) string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		s := sections[name]
		b.WriteString("\n")
		b.WriteString(strings.ToUpper(name))
		if s.Status == session.SuggestionSkipped {
			b.WriteString(" (skipped by candidate, mention lightly if at all)")
		}
		b.WriteString(":\n")
		b.WriteString(clipRunes(s.SuggestionText, 300))
		b.WriteString("\n")
	}
	return b.String()
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
