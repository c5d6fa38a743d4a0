package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/feed"
	"AutoBlogger/internal/frontmatter"
	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/generation/generationtest"
	"AutoBlogger/internal/outline"
	"AutoBlogger/internal/ports/portstest"
	"AutoBlogger/internal/section"
)

const siteRoot = "https://blog.example"

// blogGenerator answers every stage prompt with a well-formed reply.
func blogGenerator() *generationtest.Fake {
	return &generationtest.Fake{Handler: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, `single key "title"`):
			return `{"title": "Complete guide"}`, nil
		case strings.Contains(prompt, "informational intent"):
			return generation.QuoteList(generation.DecodeList[domain.SearchResult](prompt[strings.Index(prompt, "["):])), nil
		case strings.Contains(prompt, "identify the topics"):
			return `["Basics", "Care"]`, nil
		case strings.Contains(prompt, "PICK the best"):
			return `["Basics", "Care", "Prices"]`, nil
		case strings.Contains(prompt, "expected header count"):
			return `["Basics", " basics ", "Care", "Prices"]`, nil
		case strings.Contains(prompt, "previous query"):
			return `["workshop"]`, nil
		case strings.Contains(prompt, "download an image"):
			return `["banner shot"]`, nil
		case strings.Contains(prompt, `meta name="keywords"`):
			return `<meta name="description" content="everything in one place">`, nil
		case strings.Contains(prompt, "introductory paragraph"):
			return "<p>Start here.</p>", nil
		case strings.Contains(prompt, `single key "query"`):
			return `[{"query": "first"}, {"query": "second"}]`, nil
		case strings.Contains(prompt, "title of the crawled article"):
			return "- a fact", nil
		case strings.Contains(prompt, "exactly ONE <h2>"):
			rest := prompt[strings.Index(prompt, "under the h2 header ")+len("under the h2 header "):]
			header, _, _ := strings.Cut(rest, "\n")
			return fmt.Sprintf("<h2>%s</h2>\nSome prose about %s.", header, header), nil
		}
		return "", errors.New("unexpected prompt")
	}}
}

type fixture struct {
	dir      string
	gen      *generationtest.Fake
	ledger   *portstest.Ledger
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	gen := blogGenerator()
	inv := generation.NewInvoker(gen, generation.InvokerConfig{Model: "test", MaxRetries: 1}, nil)
	inv.SetClock(generationtest.NoSleep, generationtest.ZeroJitter)

	searcher := &portstest.Searcher{Results: map[string][]domain.SearchResult{
		"widgets": {{Title: "Widgets", URL: "https://a.example/widgets"}},
		"gadgets": {{Title: "Gadgets", URL: "https://a.example/gadgets"}},
		"first":   {{URL: "https://src.example/1"}},
	}}
	pages := &portstest.Pages{Text: map[string]string{
		"https://a.example/widgets": "widget page",
		"https://a.example/gadgets": "gadget page",
		"https://src.example/1":     "source text",
	}}
	images := &portstest.Images{Handles: []domain.ImageHandle{{ID: "1", URL: "https://img.example/1.jpg"}}}

	indexer := feed.NewIndexer(feed.Config{Root: dir, SiteRoot: siteRoot, SiteTitle: "Blog"}, nil)
	indexer.SetClock(func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) })
	ledger := &portstest.Ledger{}

	p := NewPipeline(PipelineDeps{
		Searcher:    searcher,
		Outline:     outline.NewPipeline(inv, pages, nil, nil),
		FrontMatter: frontmatter.NewWriter(inv, images, filepath.Join(dir, "images"), nil),
		Sections:    section.NewPipeline(inv, searcher, pages, 3, nil),
		Publisher:   indexer,
		Ledger:      ledger,
		OutputDir:   dir,
		SiteRoot:    siteRoot,
	})
	return &fixture{dir: dir, gen: gen, ledger: ledger, pipeline: p}
}

func TestRunWritesAndPublishesArticle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	res, err := f.pipeline.Run(context.Background(), Request{
		Topic:    " widgets ",
		Language: "english",
		Sections: 2,
		Category: []string{"Home", "Tools"},
	})
	require.NoError(t, err)

	assert.Equal(t, "widgets", res.Topic)
	assert.Equal(t, "Complete guide", res.Title)
	assert.Equal(t, 2, res.Sections)
	assert.Equal(t, siteRoot+"/widgets/index.html", res.Link)
	assert.NotEmpty(t, res.RunID)

	raw, err := os.ReadFile(filepath.Join(f.dir, "widgets", "index.html"))
	require.NoError(t, err)
	html := string(raw)
	assert.Contains(t, html, "<title>Complete guide</title>")
	basics := strings.Index(html, "<h2>Basics</h2>")
	care := strings.Index(html, "<h2>Care</h2>")
	require.True(t, basics > 0 && care > basics, "sections out of order")
	assert.NotContains(t, html, "<h2>Prices</h2>")

	assert.Equal(t, "Start here.", res.Post.Description)
	assert.Equal(t, siteRoot+"/images/banner%20shot.jpg", res.Post.Enclosure)

	assert.FileExists(t, filepath.Join(f.dir, "rss.xml"))
	assert.FileExists(t, filepath.Join(f.dir, "category", "Home", "rss.xml"))
	assert.FileExists(t, filepath.Join(f.dir, "category", "Home", "Tools", "rss.xml"))

	saved, ok := f.ledger.Saved("widgets")
	require.True(t, ok)
	assert.Equal(t, res.RunID, saved.RunID)
	assert.Equal(t, []string{"Home", "Tools"}, saved.Category)
}

func TestRunRefusesExistingDocument(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "widgets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "widgets", "index.html"), []byte("old"), 0o644))

	_, err := f.pipeline.Run(context.Background(), Request{Topic: "widgets", Language: "english", Sections: 2, Category: []string{"Home"}})
	require.ErrorIs(t, err, ErrDocumentExists)
	assert.Empty(t, f.gen.Prompts())

	raw, err := os.ReadFile(filepath.Join(f.dir, "widgets", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(raw))
}

func TestRunRejectsInvalidTopics(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, topic := range []string{"", "   ", "..", "a/b", `a\b`} {
		_, err := f.pipeline.Run(context.Background(), Request{Topic: topic, Sections: 2})
		assert.ErrorIs(t, err, ErrInvalidTopic, topic)
	}
}

func TestRunRejectsInvalidCategoryBeforeGenerating(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	categories := []struct {
		path []string
		want error
	}{
		{nil, feed.ErrEmptyPath},
		{[]string{"Home", "posts"}, feed.ErrReservedName},
		{[]string{"Home", "", "Tools"}, feed.ErrInvalidSegment},
	}
	for _, c := range categories {
		_, err := f.pipeline.Run(context.Background(), Request{Topic: "widgets", Language: "english", Sections: 2, Category: c.path})
		assert.ErrorIs(t, err, c.want, "%v", c.path)
	}
	assert.Empty(t, f.gen.Prompts())
	assert.NoFileExists(t, filepath.Join(f.dir, "widgets", "index.html"))

	_, err := f.pipeline.Run(context.Background(), Request{Topic: "widgets", Language: "english", Sections: 2, Category: []string{"Tools"}})
	require.NoError(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, Request{Topic: "widgets", Language: "english", Sections: 2, Category: []string{"Home"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(f.dir, "widgets", "index.html"))
}

func TestBatchIsolatesFailuresAndSkipsPublished(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	base := Request{Language: "english", Sections: 2, Category: []string{"Home"}}

	outcomes, err := f.pipeline.Batch(context.Background(), []string{"widgets", "unknown", "gadgets"}, base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `topic "unknown"`)
	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.StatusPublished, outcomes[0].Status)
	assert.Equal(t, domain.StatusFailed, outcomes[1].Status)
	assert.ErrorIs(t, outcomes[1].Err, outline.ErrNoCandidates)
	assert.Equal(t, domain.StatusPublished, outcomes[2].Status)
	assert.FileExists(t, filepath.Join(f.dir, "gadgets", "index.html"))

	outcomes, err = f.pipeline.Batch(context.Background(), []string{"widgets", "gadgets"}, base)
	require.NoError(t, err)
	for _, o := range outcomes {
		assert.Equal(t, domain.StatusSkipped, o.Status, o.Topic)
	}
}

func TestNormalizeTopicComposes(t *testing.T) {
	t.Parallel()

	got, err := NormalizeTopic("café")
	require.NoError(t, err)
	assert.Equal(t, "café", got)

	link, err := ArticleLink(siteRoot, "自我超越")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, siteRoot+"/"))
	assert.True(t, strings.HasSuffix(link, "/index.html"))
}
