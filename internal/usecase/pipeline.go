package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"AutoBlogger/internal/assembler"
	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/feed"
	"AutoBlogger/internal/frontmatter"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/outline"
	"AutoBlogger/internal/ports"
	"AutoBlogger/internal/section"
)

const (
	documentFile         = "index.html"
	defaultSearchResults = 10
)

var (
	// ErrDocumentExists is returned when the topic already has an output page.
	ErrDocumentExists = errors.New("document already written")
	// ErrInvalidTopic rejects topics that cannot name an output directory.
	ErrInvalidTopic = errors.New("invalid topic")
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Searcher    ports.Searcher
	Outline     *outline.Pipeline
	FrontMatter *frontmatter.Writer
	Sections    *section.Pipeline
	Publisher   ports.Publisher
	Ledger      ports.ArticleLedger
	Layout      assembler.Layout

	OutputDir     string
	SiteRoot      string
	SearchResults int
	TopicTimeout  time.Duration
	Logger        *slog.Logger
}

// Pipeline implements the article-authoring workflow for one topic at a time.
type Pipeline struct {
	searcher    ports.Searcher
	outline     *outline.Pipeline
	frontMatter *frontmatter.Writer
	sections    *section.Pipeline
	publisher   ports.Publisher
	ledger      ports.ArticleLedger
	layout      assembler.Layout

	outputDir     string
	siteRoot      string
	searchResults int
	topicTimeout  time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.SearchResults <= 0 {
		deps.SearchResults = defaultSearchResults
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Pipeline{
		searcher:      deps.Searcher,
		outline:       deps.Outline,
		frontMatter:   deps.FrontMatter,
		sections:      deps.Sections,
		publisher:     deps.Publisher,
		ledger:        deps.Ledger,
		layout:        deps.Layout,
		outputDir:     deps.OutputDir,
		siteRoot:      deps.SiteRoot,
		searchResults: deps.SearchResults,
		topicTimeout:  deps.TopicTimeout,
		logger:        deps.Logger,
		now:           time.Now,
	}
}

// Request describes one article to write.
type Request struct {
	Topic    string
	Language string
	Sections int
	Category []string
}

// Result summarizes a finished topic run.
type Result struct {
	RunID    string
	Topic    string
	Title    string
	Path     string
	Link     string
	Post     domain.Post
	Sections int
}

// Run researches, writes, assembles and publishes one article. The document
// is written once; an invalid category or an existing output page aborts the
// run before any generation call.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if p.searcher == nil || p.outline == nil || p.frontMatter == nil || p.sections == nil || p.publisher == nil {
		return Result{}, fmt.Errorf("pipeline misconfigured")
	}

	topic, err := NormalizeTopic(req.Topic)
	if err != nil {
		return Result{}, err
	}
	category, err := feed.NormalizePath(req.Category)
	if err != nil {
		return Result{Topic: topic}, fmt.Errorf("category of %s: %w", topic, err)
	}
	res := Result{RunID: uuid.NewString(), Topic: topic}
	log := p.logger.With("run_id", res.RunID, "topic", topic)

	if p.topicTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.topicTimeout)
		defer cancel()
	}

	res.Path = p.DocumentPath(topic)
	if _, err := os.Stat(res.Path); err == nil {
		return res, fmt.Errorf("%s: %w", res.Path, ErrDocumentExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("stat %s: %w", res.Path, err)
	}

	log.Info("topic run started", "sections", req.Sections, "category", strings.Join(category, "/"))

	competitors, err := p.searcher.Search(ctx, topic, p.searchResults)
	if err != nil {
		return res, fmt.Errorf("search competitors: %w", err)
	}

	headers, err := p.outline.Build(ctx, outline.Request{
		Topic:       topic,
		Language:    req.Language,
		Size:        req.Sections,
		Competitors: competitors,
	})
	if err != nil {
		return res, fmt.Errorf("build outline: %w", err)
	}

	fm, err := p.frontMatter.Write(ctx, frontmatter.Request{Topic: topic, Language: req.Language, Outline: headers})
	if err != nil {
		return res, fmt.Errorf("write front matter: %w", err)
	}
	res.Title = fm.Title

	sections, err := p.sections.Write(ctx, topic, req.Language, headers)
	if err != nil {
		return res, fmt.Errorf("write sections: %w", err)
	}
	res.Sections = len(sections)

	html := assembler.Assemble(domain.Document{
		Topic:       topic,
		Title:       fm.Title,
		Metadata:    fm.Metadata,
		Banner:      fm.Banner,
		MiddleImage: fm.MiddleImage,
		Intro:       fm.Intro,
		Outline:     headers,
		Sections:    sections,
	}, p.layout)

	if err := writeOnce(res.Path, html); err != nil {
		return res, err
	}
	log.Info("document written", "path", res.Path, "bytes", len(html))

	res.Link, err = ArticleLink(p.siteRoot, topic)
	if err != nil {
		return res, err
	}
	res.Post, err = p.publisher.Publish(html, res.Link, category)
	if err != nil {
		return res, fmt.Errorf("publish %s: %w", topic, err)
	}

	if p.ledger != nil {
		err = p.ledger.SavePublished(ctx, domain.PublishedArticle{
			RunID:       res.RunID,
			Topic:       topic,
			Title:       res.Title,
			Link:        res.Link,
			Category:    category,
			PublishedAt: p.now(),
		})
		if err != nil {
			return res, fmt.Errorf("persist topic %s: %w", topic, err)
		}
	}

	log.Info("topic run finished", "title", res.Title, "link", res.Link)
	return res, nil
}

// DocumentPath is the output page of topic.
func (p *Pipeline) DocumentPath(topic string) string {
	return filepath.Join(p.outputDir, topic, documentFile)
}

// NormalizeTopic trims and NFC-normalizes a topic and checks that it can be
// used as a directory name.
func NormalizeTopic(topic string) (string, error) {
	topic = norm.NFC.String(strings.TrimSpace(topic))
	switch {
	case topic == "", topic == ".", topic == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, topic)
	case strings.ContainsAny(topic, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidTopic, topic)
	}
	return topic, nil
}

// ArticleLink is the public URL of the page written for topic.
func ArticleLink(siteRoot, topic string) (string, error) {
	link, err := url.JoinPath(siteRoot, topic, documentFile)
	if err != nil {
		return "", fmt.Errorf("build link for %q: %w", topic, err)
	}
	return link, nil
}

func writeOnce(path, html string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", path, ErrDocumentExists)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
