package assembler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoBlogger/internal/domain"
)

func sampleDocument() domain.Document {
	return domain.Document{
		Topic:       "widgets",
		Title:       "2大 Widget 攻略",
		Metadata:    `<meta name="description" content="widgets">` + "\n" + `<meta name="keywords" content="widget">`,
		Banner:      "shiny widgets.jpg",
		MiddleImage: "widget workshop.jpg",
		Intro:       "<p>Ever wondered about widgets?</p>",
		Outline:     []string{"Widget history", "Widget prices"},
		Sections: []domain.Section{
			{Header: "Widget history", Prose: "<h2>Widget history</h2>\nWidgets are old.\n<strong>Very</strong> old."},
			{Header: "Widget prices", Prose: "<h2>Widget prices</h2>\n<p>Cheap.</p>"},
		},
	}
}

func TestAssembleExtractionContract(t *testing.T) {
	t.Parallel()

	html := Assemble(sampleDocument(), Layout{FeedURL: "https://example.com/rss.xml"})
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "2大 Widget 攻略", doc.Find("title").First().Text())
	src, ok := doc.Find("img.banner").Attr("src")
	require.True(t, ok)
	assert.Equal(t, "../images/shiny widgets.jpg", src)
	assert.Equal(t, "Ever wondered about widgets?", doc.Find("div.description p").First().Text())
	assert.Equal(t, 2, doc.Find(`meta[name]`).Length())
}

func TestAssembleOrdersTOCAndSections(t *testing.T) {
	t.Parallel()

	html := Assemble(sampleDocument(), Layout{})
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	var toc []string
	doc.Find("div.content-page li").Each(func(_ int, s *goquery.Selection) {
		toc = append(toc, s.Text())
	})
	assert.Equal(t, []string{"Widget history", "Widget prices"}, toc)
	assert.Equal(t, DefaultTOCLabel, doc.Find("div.content-page h2").Text())

	var headers []string
	doc.Find("div.main > h2").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	assert.Equal(t, []string{"Widget history", "Widget prices"}, headers)

	assert.Contains(t, html, "<p>Widgets are old.</p>")
	assert.Contains(t, html, "<p><strong>Very</strong> old.</p>")
	assert.Contains(t, html, `src="../images/widget workshop.jpg"`)
	assert.Contains(t, html, DefaultImageCredit)
}

func TestAssembleWrapsBareIntro(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	doc.Intro = "plain intro"
	html := Assemble(doc, Layout{})

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	assert.Equal(t, "plain intro", parsed.Find("div.description p").Text())
}

func TestAssembleIsDeterministic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Assemble(sampleDocument(), Layout{}), Assemble(sampleDocument(), Layout{}))
}

func TestRelatedWidgetUsesFeed(t *testing.T) {
	t.Parallel()

	html := Assemble(sampleDocument(), Layout{FeedURL: "https://example.com/rss.xml", RelatedLabel: "Related"})
	assert.Contains(t, html, "loadRSSFeed('https://example.com/rss.xml')")
	assert.Contains(t, html, "Related")
	assert.NotContains(t, html, "{{")
}

func TestWrapLines(t *testing.T) {
	t.Parallel()

	in := "<h2>A</h2>\n\ntext line\n  <strong>bold</strong> lead\n<ul><li>x</li></ul>"
	want := "<h2>A</h2>\n\n<p>text line</p>\n<p><strong>bold</strong> lead</p>\n<ul><li>x</li></ul>"
	assert.Equal(t, want, WrapLines(in))
}
