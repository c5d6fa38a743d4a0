package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"AutoBlogger/internal/assembler"
	"AutoBlogger/internal/config"
	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/feed"
	"AutoBlogger/internal/frontmatter"
	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/infrastructure/extract"
	"AutoBlogger/internal/infrastructure/imagecompress"
	"AutoBlogger/internal/infrastructure/images"
	"AutoBlogger/internal/infrastructure/indexnow"
	"AutoBlogger/internal/infrastructure/llm"
	"AutoBlogger/internal/infrastructure/search"
	"AutoBlogger/internal/infrastructure/storage"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/outline"
	"AutoBlogger/internal/review"
	"AutoBlogger/internal/section"
	"AutoBlogger/internal/usecase"
)

const (
	backendOpenAI = "openai"
	backendGemini = "gemini"
	imagesDir     = "images"
)

// Application wires configs to use cases.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
}

// New builds an application instance. Adapters are created per command.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	return &Application{cfg: cfg, logger: baseLogger}
}

// Config returns the loaded configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// GenerateOptions overrides the article defaults of one generate run.
type GenerateOptions struct {
	Topics   []string
	Category []string
	Sections int
	Language string
	Model    string
	Review   bool
	// In and Out are the terminal streams used by the outline review.
	In  io.Reader
	Out io.Writer
}

// Generate writes and publishes one article per topic.
func (a *Application) Generate(ctx context.Context, opts GenerateOptions) ([]usecase.TopicOutcome, error) {
	if len(opts.Topics) == 0 {
		return nil, fmt.Errorf("no topics given")
	}

	base := usecase.Request{
		Language: firstNonEmpty(opts.Language, a.cfg.Article.Language),
		Sections: a.cfg.Article.Sections,
		Category: a.cfg.Article.Category,
	}
	if opts.Sections > 0 {
		base.Sections = opts.Sections
	}
	if len(opts.Category) > 0 {
		base.Category = opts.Category
	}
	if _, err := feed.NormalizePath(base.Category); err != nil {
		return nil, fmt.Errorf("category (set --category or article.category): %w", err)
	}

	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}

	ledger, err := storage.OpenSQLiteLedger(a.cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	defer ledger.Close()

	return a.pipeline(gen, ledger, opts).Batch(ctx, opts.Topics, base)
}

func (a *Application) pipeline(gen *generation.Invoker, ledger *storage.SQLiteLedger, opts GenerateOptions) *usecase.Pipeline {
	cfg := a.cfg
	if opts.Model != "" {
		gen = gen.WithModel(opts.Model)
	}

	httpClient := &http.Client{Timeout: cfg.Search.Timeout}
	searcher := search.NewGoogleSearcher(httpClient, cfg.Search.Endpoint, cfg.Search.UserAgent)
	pages := extract.NewReadabilityFetcher(httpClient, extract.Options{
		UserAgent: cfg.Search.UserAgent,
		MaxBytes:  cfg.Search.MaxPageBytes,
		MaxChars:  cfg.Search.MaxPromptChars,
	})
	pixabay := images.NewPixabayClient(cfg.Images.Endpoint, cfg.Images.APIKey, cfg.Images.Timeout)

	var override outline.Override
	if opts.Review || cfg.Article.Review {
		in, out := opts.In, opts.Out
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		override = review.NewConsole(in, out)
	}

	indexer := feed.NewIndexer(feed.Config{
		Root:        cfg.Site.OutputDir,
		SiteRoot:    cfg.Site.Root,
		SiteTitle:   cfg.Site.Title,
		Description: cfg.Site.Description,
	}, a.logger.With("component", "feed"))

	feedURL, _ := url.JoinPath(cfg.Site.Root, feed.DefaultFeedFile)

	return usecase.NewPipeline(usecase.PipelineDeps{
		Searcher:    searcher,
		Outline:     outline.NewPipeline(gen, pages, override, a.logger.With("component", "outline")),
		FrontMatter: frontmatter.NewWriter(gen, pixabay, filepath.Join(cfg.Site.OutputDir, imagesDir), a.logger.With("component", "frontmatter")),
		Sections:    section.NewPipeline(gen, searcher, pages, cfg.Search.SectionResults, a.logger.With("component", "section")),
		Publisher:   indexer,
		Ledger:      ledger,
		Layout: assembler.Layout{
			TOCLabel:     cfg.Site.TOCLabel,
			RelatedLabel: cfg.Site.Related,
			FeedURL:      feedURL,
		},
		OutputDir:     cfg.Site.OutputDir,
		SiteRoot:      cfg.Site.Root,
		SearchResults: cfg.Search.Results,
		TopicTimeout:  cfg.Generation.TopicTimeout,
		Logger:        a.logger.With("component", "pipeline"),
	})
}

// generator resolves the configured backend and wraps it in an invoker.
func (a *Application) generator(ctx context.Context) (*generation.Invoker, error) {
	cfg := a.cfg.Generation

	registry := generation.NewRegistry()
	if cfg.APIKey != "" {
		registry.Register(backendOpenAI, llm.NewOpenAIClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout))
	}
	if cfg.GeminiAPIKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		registry.Register(backendGemini, client)
	}

	backend, err := registry.Resolve(cfg.Backend)
	if err != nil {
		return nil, err
	}

	sampling := domain.Sampling{
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
	}
	return generation.NewInvoker(backend, generation.InvokerConfig{
		Model:      cfg.Model,
		Sampling:   sampling,
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
	}, a.logger.With("component", "generation", "backend", cfg.Backend)), nil
}

// Submit sends every link of the configured feed to IndexNow.
func (a *Application) Submit(ctx context.Context, source string) (int, error) {
	cfg := a.cfg.IndexNow
	source = firstNonEmpty(source, cfg.FeedURL)
	if source == "" {
		source = filepath.Join(a.cfg.Site.OutputDir, feed.DefaultFeedFile)
	}
	submitter := indexnow.NewSubmitter(cfg.Endpoint, cfg.APIKey, cfg.Host, a.logger.With("component", "indexnow"))
	return submitter.SubmitFeed(ctx, source)
}

// Compress shrinks the images of dir, or of the site images directory.
func (a *Application) Compress(dir string) ([]imagecompress.Result, error) {
	dir = firstNonEmpty(dir, filepath.Join(a.cfg.Site.OutputDir, imagesDir))
	c := imagecompress.New(a.cfg.Compress.Quality, a.cfg.Compress.ThresholdKB, a.logger.With("component", "compress"))
	return c.Dir(dir)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
