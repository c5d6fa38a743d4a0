// Package section researches and writes the body of every outline header.
package section

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const (
	StageQueries = "queries"
	StageBullets = "bullets"
	StageProse   = "prose"

	// DefaultResultsPerQuery is how many search hits are read for each query.
	DefaultResultsPerQuery = 3
	minQueries             = 2
)

// Pipeline writes sections one header at a time, in outline order.
type Pipeline struct {
	inv      *generation.Invoker
	search   ports.Searcher
	pages    ports.PageFetcher
	perQuery int
	logger   *slog.Logger
}

// NewPipeline wires the collaborators; perQuery <= 0 falls back to the default.
func NewPipeline(inv *generation.Invoker, search ports.Searcher, pages ports.PageFetcher, perQuery int, logger *slog.Logger) *Pipeline {
	if perQuery <= 0 {
		perQuery = DefaultResultsPerQuery
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pipeline{inv: inv, search: search, pages: pages, perQuery: perQuery, logger: logger}
}

// Write produces one section per header, preserving the outline order.
func (p *Pipeline) Write(ctx context.Context, topic, lang string, outline []string) ([]domain.Section, error) {
	if p.inv == nil || p.search == nil || p.pages == nil {
		return nil, fmt.Errorf("section pipeline misconfigured")
	}

	sections := make([]domain.Section, 0, len(outline))
	for i, header := range outline {
		sec, err := p.WriteSection(ctx, topic, lang, header)
		if err != nil {
			return nil, fmt.Errorf("section %d %q: %w", i+1, header, err)
		}
		sections = append(sections, sec)
		p.logger.Info("section written", "topic", topic, "index", i+1, "of", len(outline), "header", header)
	}
	return sections, nil
}

// WriteSection derives queries, gathers evidence, extracts bullets and
// synthesizes the prose for one header.
func (p *Pipeline) WriteSection(ctx context.Context, topic, lang, header string) (domain.Section, error) {
	sec := domain.Section{Header: header}

	queries, err := p.Queries(ctx, topic, header, lang)
	if err != nil {
		return sec, err
	}

	evidence := p.Evidence(ctx, queries)
	p.logger.Debug("evidence gathered", "header", header, "queries", len(queries), "pages", len(evidence))

	if sec.Bullets, err = p.Bullets(ctx, header, lang, evidence); err != nil {
		return sec, err
	}
	if sec.Prose, err = p.Prose(ctx, header, lang, sec.Bullets); err != nil {
		return sec, err
	}
	return sec, nil
}

// Queries asks for at least two distinct search queries for header.
func (p *Pipeline) Queries(ctx context.Context, topic, header, lang string) ([]string, error) {
	queries, err := generation.Run(ctx, p.inv, StageQueries, queryPrompt(topic, header, lang), parseQueries)
	if err != nil {
		return nil, fmt.Errorf("derive queries: %w", err)
	}
	return queries, nil
}

// Evidence searches every query and extracts the text of the top results.
// Failed searches, fetches and extractions are logged and skipped; a URL is
// read at most once.
func (p *Pipeline) Evidence(ctx context.Context, queries []string) []domain.Evidence {
	var out []domain.Evidence
	seen := map[string]struct{}{}
	for _, query := range queries {
		results, err := p.search.Search(ctx, query, p.perQuery)
		if err != nil {
			p.logger.Warn("skip query", "query", query, "error", err)
			continue
		}
		for _, result := range results {
			if _, dup := seen[result.URL]; dup || result.URL == "" {
				continue
			}
			seen[result.URL] = struct{}{}

			ev, ok := p.read(ctx, result.URL)
			if ok {
				out = append(out, ev)
			}
		}
	}
	return out
}

func (p *Pipeline) read(ctx context.Context, pageURL string) (domain.Evidence, bool) {
	raw, err := p.pages.Fetch(ctx, pageURL)
	if err != nil {
		p.logger.Warn("skip source", "url", pageURL, "error", err)
		return domain.Evidence{}, false
	}
	text, err := p.pages.Extract(raw, pageURL)
	if err != nil || strings.TrimSpace(text) == "" {
		p.logger.Warn("skip source without text", "url", pageURL, "error", err)
		return domain.Evidence{}, false
	}
	title := strings.TrimSpace(p.pages.Title(raw))
	if title == "" {
		title = untitledPage
	}
	return domain.Evidence{URL: pageURL, Title: title, Text: text}, true
}

// Bullets extracts header-scoped facts from every source and joins them with
// newlines. A source may legitimately yield nothing.
func (p *Pipeline) Bullets(ctx context.Context, header, lang string, evidence []domain.Evidence) (string, error) {
	var parts []string
	for _, ev := range evidence {
		facts, err := generation.Run(ctx, p.inv, StageBullets, bulletPrompt(ev.Title, ev.Text, header, lang), generation.Text)
		if err != nil {
			return "", fmt.Errorf("extract bullets from %s: %w", ev.URL, err)
		}
		if facts != "" {
			parts = append(parts, facts)
		}
	}
	return strings.Join(parts, "\n"), nil
}

// Prose synthesizes the section HTML. It runs on empty bullets too.
func (p *Pipeline) Prose(ctx context.Context, header, lang, bullets string) (string, error) {
	if bullets == "" {
		p.logger.Warn("writing section without bullets", "header", header)
	}
	prose, err := generation.Run(ctx, p.inv, StageProse, prosePrompt(bullets, header, lang), generation.Text)
	if err != nil {
		return "", fmt.Errorf("synthesize prose: %w", err)
	}
	return prose, nil
}

func parseQueries(completion string) generation.Attempt[[]string] {
	type item struct {
		Query string `json:"query" yaml:"query"`
	}

	var raw []string
	if items := generation.DecodeList[item](completion); items != nil {
		for _, it := range items {
			raw = append(raw, it.Query)
		}
	} else {
		raw = generation.DecodeList[string](completion)
	}

	seen := map[string]struct{}{}
	var queries []string
	for _, q := range generation.Strings(raw) {
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}
	if len(queries) < minQueries {
		return generation.Malformed[[]string](fmt.Errorf("need %d distinct queries, got %d", minQueries, len(queries)))
	}
	return generation.Succeeded(queries)
}
