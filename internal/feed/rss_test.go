package feed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoBlogger/internal/domain"
)

func samplePost(n int) domain.Post {
	return domain.Post{
		Title:       fmt.Sprintf("Post %d", n),
		Link:        fmt.Sprintf("https://example.com/post-%d/index.html", n),
		Description: fmt.Sprintf("Description <%d> & more", n),
		Enclosure:   fmt.Sprintf("https://example.com/images/%d.jpg", n),
		PubDate:     "Tue, 14 Oct 2025 09:30:00 +0800",
	}
}

func parseWithGofeed(t *testing.T, path string) *gofeed.Feed {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := gofeed.NewParser().ParseString(string(raw))
	require.NoError(t, err)
	return parsed
}

func TestUpdateFeedIsAppendOnly(t *testing.T) {
	t.Parallel()

	ix := NewIndexer(Config{Root: t.TempDir(), SiteRoot: "https://example.com"}, nil)
	feedPath := filepath.Join(t.TempDir(), "cat", "rss.xml")

	const k = 5
	for i := 1; i <= k; i++ {
		require.NoError(t, ix.UpdateFeed(feedPath, samplePost(i)))
	}

	feed, ok, err := ReadFeed(feedPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, feed.Channel.Items, k)
	for i, item := range feed.Channel.Items {
		assert.Equal(t, samplePost(i+1).Title, item.Title)
	}

	require.NoError(t, ix.UpdateFeed(feedPath, samplePost(k+1)))
	feed, _, err = ReadFeed(feedPath)
	require.NoError(t, err)
	require.Len(t, feed.Channel.Items, k+1)
	for i := 0; i < k; i++ {
		assert.Equal(t, samplePost(i+1).Link, feed.Channel.Items[i].Link)
	}
	assert.Equal(t, samplePost(k+1).Link, feed.Channel.Items[k].Link)
}

func TestFeedRoundTripThroughGofeed(t *testing.T) {
	t.Parallel()

	ix := NewIndexer(Config{Root: t.TempDir()}, nil)
	feedPath := filepath.Join(t.TempDir(), "rss.xml")
	post := samplePost(1)
	post.Title = "自我超越是什麼？7大方法"
	post.Description = "維克多·弗蘭克的意義治療"
	require.NoError(t, ix.UpdateFeed(feedPath, post))

	parsed := parseWithGofeed(t, feedPath)
	require.Len(t, parsed.Items, 1)
	item := parsed.Items[0]
	assert.Equal(t, post.Title, item.Title)
	assert.Equal(t, post.Link, item.Link)
	assert.Equal(t, post.Description, item.Description)
	assert.Equal(t, post.PubDate, item.Published)
	require.Len(t, item.Enclosures, 1)
	assert.Equal(t, post.Enclosure, item.Enclosures[0].URL)
	assert.Equal(t, "image/jpeg", item.Enclosures[0].Type)

	feed, _, err := ReadFeed(feedPath)
	require.NoError(t, err)
	assert.Equal(t, ItemFromPost(post), feed.Channel.Items[0])
}

func TestWriteFeedFormat(t *testing.T) {
	t.Parallel()

	feedPath := filepath.Join(t.TempDir(), "rss.xml")
	feed := NewFeed("Site", "https://example.com", "")
	feed.Append(ItemFromPost(samplePost(1)))
	require.NoError(t, WriteFeed(feedPath, feed))

	raw, err := os.ReadFile(feedPath)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, text, `<rss version="2.0">`)
	assert.Contains(t, text, "\n    <item>\n      <title>Post 1</title>")
	assert.Contains(t, text, `<enclosure url="https://example.com/images/1.jpg" type="image/jpeg"></enclosure>`)
	assert.NoFileExists(t, feedPath+".tmp")
}

func TestReadFeedAcceptsBareChannel(t *testing.T) {
	t.Parallel()

	feedPath := filepath.Join(t.TempDir(), "rss.xml")
	legacy := `<?xml version='1.0' encoding='utf-8'?>
<channel>
  <item>
    <title>Old</title>
    <link>https://example.com/old/index.html</link>
    <description>kept</description>
    <enclosure url="https://example.com/images/old.jpg" type="image/jpeg" />
    <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
  </item>
</channel>`
	require.NoError(t, os.WriteFile(feedPath, []byte(legacy), 0o644))

	ix := NewIndexer(Config{Root: t.TempDir()}, nil)
	require.NoError(t, ix.UpdateFeed(feedPath, samplePost(2)))

	feed, ok, err := ReadFeed(feedPath)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, feed.Channel.Items, 2)
	assert.Equal(t, "Old", feed.Channel.Items[0].Title)
	assert.Equal(t, "Post 2", feed.Channel.Items[1].Title)

	parsed := parseWithGofeed(t, feedPath)
	assert.Len(t, parsed.Items, 2)
}

func TestReadFeedKeepsUnknownChannelElements(t *testing.T) {
	t.Parallel()

	feedPath := filepath.Join(t.TempDir(), "rss.xml")
	existing := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Avoir</title>
    <link>https://example.com</link>
    <description>blog</description>
    <language>zh-TW</language>
    <lastBuildDate>Mon, 02 Jan 2006 15:04:05 +0000</lastBuildDate>
  </channel>
</rss>`
	require.NoError(t, os.WriteFile(feedPath, []byte(existing), 0o644))

	feed, ok, err := ReadFeed(feedPath)
	require.NoError(t, err)
	require.True(t, ok)
	feed.Append(ItemFromPost(samplePost(1)))
	require.NoError(t, WriteFeed(feedPath, feed))

	parsed := parseWithGofeed(t, feedPath)
	assert.Equal(t, "Avoir", parsed.Title)
	assert.Equal(t, "zh-TW", parsed.Language)
	assert.Len(t, parsed.Items, 1)
}

func TestReadFeedKeepsLinkNextToAtomLink(t *testing.T) {
	t.Parallel()

	feedPath := filepath.Join(t.TempDir(), "rss.xml")
	existing := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Avoir</title>
    <link>https://example.com</link>
    <atom:link href="https://example.com/rss.xml" rel="self" type="application/rss+xml"/>
    <description>blog</description>
  </channel>
</rss>`
	require.NoError(t, os.WriteFile(feedPath, []byte(existing), 0o644))

	feed, ok, err := ReadFeed(feedPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", feed.Channel.Link)
	require.Len(t, feed.Channel.Extra, 1)
	assert.Equal(t, "link", feed.Channel.Extra[0].XMLName.Local)
	assert.Equal(t, "http://www.w3.org/2005/Atom", feed.Channel.Extra[0].XMLName.Space)

	feed.Append(ItemFromPost(samplePost(1)))
	require.NoError(t, WriteFeed(feedPath, feed))

	again, _, err := ReadFeed(feedPath)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", again.Channel.Link)
	assert.Len(t, again.Channel.Items, 1)
	assert.Equal(t, "https://example.com", parseWithGofeed(t, feedPath).Link)
}

func TestReadFeedMissingOrEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, ok, err := ReadFeed(filepath.Join(dir, "none.xml"))
	require.NoError(t, err)
	assert.False(t, ok)

	empty := filepath.Join(dir, "empty.xml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, ok, err = ReadFeed(empty)
	require.NoError(t, err)
	assert.False(t, ok)

	wrong := filepath.Join(dir, "wrong.xml")
	require.NoError(t, os.WriteFile(wrong, []byte("<feed></feed>"), 0o644))
	_, _, err = ReadFeed(wrong)
	assert.Error(t, err)
}

func TestItemFromPostWithoutEnclosure(t *testing.T) {
	t.Parallel()

	post := samplePost(1)
	post.Enclosure = ""
	assert.Nil(t, ItemFromPost(post).Enclosure)
}
