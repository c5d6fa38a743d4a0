// Package outline derives the section headers of an article from competing
// pages.
package outline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const (
	StageCompetitors = "competitors"
	StageHeaders     = "headers"
	StageRefine      = "refine"
	StageSelect      = "select"
)

// ErrNoCandidates is returned when no competitor page produced any header.
var ErrNoCandidates = errors.New("no candidate headers")

// Override lets a caller inspect and replace a generated outline.
type Override interface {
	Review(ctx context.Context, outline []string) ([]string, error)
}

// OverrideFunc adapts a function to Override.
type OverrideFunc func(ctx context.Context, outline []string) ([]string, error)

func (f OverrideFunc) Review(ctx context.Context, outline []string) ([]string, error) {
	return f(ctx, outline)
}

// Request carries the inputs of one outline build.
type Request struct {
	Topic       string
	Language    string
	Size        int
	Competitors []domain.SearchResult
}

// Pipeline turns a topic and its competitors into an ordered outline.
type Pipeline struct {
	inv      *generation.Invoker
	pages    ports.PageFetcher
	override Override
	logger   *slog.Logger
}

// NewPipeline wires the invoker and the page fetcher; override may be nil.
func NewPipeline(inv *generation.Invoker, pages ports.PageFetcher, override Override, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{inv: inv, pages: pages, override: override, logger: logger}
}

// Build runs competitor selection, per-page header extraction, refinement,
// selection and enforcement, then hands the result to the override if any.
func (p *Pipeline) Build(ctx context.Context, req Request) ([]string, error) {
	if p.inv == nil || p.pages == nil {
		return nil, fmt.Errorf("outline pipeline misconfigured")
	}
	if req.Size < 1 {
		return nil, fmt.Errorf("outline size must be positive, got %d", req.Size)
	}

	selected, err := p.SelectCompetitors(ctx, req.Topic, req.Competitors)
	if err != nil {
		return nil, err
	}

	candidates, err := p.Candidates(ctx, req.Topic, req.Language, selected)
	if err != nil {
		return nil, err
	}
	p.logger.Info("candidate headers aggregated", "topic", req.Topic, "count", len(candidates))

	refined, err := generation.Run(ctx, p.inv, StageRefine, refinePrompt(req.Topic, candidates, req.Language), generation.StringList)
	if err != nil {
		return nil, fmt.Errorf("refine headers: %w", err)
	}

	chosen, err := generation.Run(ctx, p.inv, StageSelect, selectPrompt(req.Topic, refined, req.Language, req.Size), generation.StringList)
	if err != nil {
		return nil, fmt.Errorf("select headers: %w", err)
	}

	outline := Enforce(chosen, req.Size)
	if len(outline) == 0 {
		return nil, ErrNoCandidates
	}
	p.logger.Info("outline built", "topic", req.Topic, "headers", outline)

	return p.review(ctx, outline, req.Size)
}

// SelectCompetitors keeps the informational results among the search results.
func (p *Pipeline) SelectCompetitors(ctx context.Context, topic string, results []domain.SearchResult) ([]domain.SearchResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("select competitors: %w", ErrNoCandidates)
	}

	selected, err := generation.Run(ctx, p.inv, StageCompetitors, competitorPrompt(topic, results), parseCompetitors)
	if err != nil {
		return nil, fmt.Errorf("select competitors: %w", err)
	}
	p.logger.Debug("competitors selected", "topic", topic, "kept", len(selected), "of", len(results))
	return selected, nil
}

// Candidates extracts headers from every competitor page and concatenates
// them. Pages that cannot be fetched or extracted are skipped.
func (p *Pipeline) Candidates(ctx context.Context, topic, lang string, competitors []domain.SearchResult) ([]string, error) {
	var all []string
	for _, competitor := range competitors {
		text, ok := p.pageText(ctx, competitor.URL)
		if !ok {
			continue
		}

		headers, err := generation.Run(ctx, p.inv, StageHeaders, headerPrompt(topic, text, lang), generation.StringList)
		if err != nil {
			return nil, fmt.Errorf("extract headers from %s: %w", competitor.URL, err)
		}
		p.logger.Debug("page headers extracted", "url", competitor.URL, "count", len(headers))
		all = append(all, headers...)
	}

	if len(all) == 0 {
		return nil, ErrNoCandidates
	}
	return all, nil
}

func (p *Pipeline) pageText(ctx context.Context, pageURL string) (string, bool) {
	raw, err := p.pages.Fetch(ctx, pageURL)
	if err != nil {
		p.logger.Warn("skip competitor page", "url", pageURL, "error", err)
		return "", false
	}
	text, err := p.pages.Extract(raw, pageURL)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.Warn("skip competitor page without text", "url", pageURL, "error", err)
		return "", false
	}
	return text, true
}

// review hands the outline to the override. The edited outline is enforced
// like a generated one.
func (p *Pipeline) review(ctx context.Context, outline []string, size int) ([]string, error) {
	if p.override == nil {
		return outline, nil
	}

	edited, err := p.override.Review(ctx, outline)
	if err != nil {
		return nil, fmt.Errorf("review outline: %w", err)
	}
	edited = Enforce(edited, size)
	if len(edited) == 0 {
		p.logger.Info("outline review returned nothing, keeping generated outline")
		return outline, nil
	}
	return edited, nil
}

// Enforce trims headers, drops empty and normalized duplicate entries, and
// caps the outline at size while keeping order.
func Enforce(headers []string, size int) []string {
	fold := cases.Fold()
	seen := make(map[string]struct{}, len(headers))
	out := make([]string, 0, min(len(headers), max(size, 0)))
	for _, header := range headers {
		if len(out) >= size {
			break
		}
		header = norm.NFC.String(strings.TrimSpace(header))
		if header == "" {
			continue
		}
		key := strings.Join(strings.Fields(fold.String(header)), " ")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, header)
	}
	return out
}

func parseCompetitors(completion string) generation.Attempt[[]domain.SearchResult] {
	decoded := generation.DecodeList[domain.SearchResult](completion)
	kept := make([]domain.SearchResult, 0, len(decoded))
	for _, r := range decoded {
		r.URL = strings.TrimSpace(r.URL)
		if r.URL == "" {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return generation.Malformed[[]domain.SearchResult](nil)
	}
	return generation.Succeeded(kept)
}
