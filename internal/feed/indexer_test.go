package feed

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoBlogger/internal/assembler"
	"AutoBlogger/internal/domain"
)

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	ix := NewIndexer(Config{Root: t.TempDir(), SiteRoot: "https://example.com", SiteTitle: "Example"}, nil)
	ix.SetClock(func() time.Time { return fixedNow })
	return ix
}

func itemTitles(t *testing.T, path string) []string {
	t.Helper()
	feed, ok, err := ReadFeed(path)
	require.NoError(t, err)
	require.True(t, ok, "feed %s missing", path)
	titles := make([]string, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		titles = append(titles, item.Title)
	}
	return titles
}

func TestEnsureCategoryPathIsIdempotent(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t)
	path := []string{"心理學", "佛蘭克"}
	require.NoError(t, ix.EnsureCategoryPath(path))

	leafFeed := ix.CategoryFeedPath(path)
	assert.FileExists(t, leafFeed)
	assert.FileExists(t, ix.CategoryFeedPath(path[:1]))
	assert.Empty(t, itemTitles(t, leafFeed))

	_, err := ix.RecordPost(pageHTML, "https://example.com/w/index.html", path)
	require.NoError(t, err)
	require.NoError(t, ix.UpdateFeed(leafFeed, samplePost(1)))

	require.NoError(t, ix.EnsureCategoryPath(path))

	tree, err := LoadTree(ix.StructurePath())
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
	leaf, ok := tree.Lookup(path)
	require.True(t, ok)
	assert.Len(t, leaf.Posts, 1)
	assert.Equal(t, []string{"Post 1"}, itemTitles(t, leafFeed))
}

func TestPublishPropagatesToEveryAncestor(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t)
	path := []string{"心理學", "佛蘭克", "意義治療"}

	post, err := ix.Publish(pageHTML, "https://example.com/widgets/index.html", path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/images/foo.jpg", post.Enclosure)

	for depth := 1; depth <= len(path); depth++ {
		assert.Equal(t, []string{"Widget guide"}, itemTitles(t, ix.CategoryFeedPath(path[:depth])), "depth %d", depth)
	}
	assert.Equal(t, []string{"Widget guide"}, itemTitles(t, ix.RootFeedPath()))

	root, _, err := ReadFeed(ix.RootFeedPath())
	require.NoError(t, err)
	assert.Equal(t, "Tue, 14 Oct 2025 09:30:00 +0800", root.Channel.LastBuildDate)
	assert.Equal(t, "Example", root.Channel.Title)

	tree, err := LoadTree(ix.StructurePath())
	require.NoError(t, err)
	leaf, ok := tree.Lookup(path)
	require.True(t, ok)
	require.Len(t, leaf.Posts, 1)
	assert.Equal(t, post, leaf.Posts[0])
	top, _ := tree.Lookup(path[:1])
	assert.Empty(t, top.Posts)
}

func TestPublishSingleCategoryWritesOnce(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t)
	_, err := ix.Publish(pageHTML, "https://example.com/a/index.html", []string{"心理學"})
	require.NoError(t, err)
	_, err = ix.Publish(pageHTML, "https://example.com/b/index.html", []string{"心理學"})
	require.NoError(t, err)

	feed, _, err := ReadFeed(ix.CategoryFeedPath([]string{"心理學"}))
	require.NoError(t, err)
	require.Len(t, feed.Channel.Items, 2)
	assert.Equal(t, "https://example.com/a/index.html", feed.Channel.Items[0].Link)
	assert.Equal(t, "https://example.com/b/index.html", feed.Channel.Items[1].Link)
	assert.Len(t, itemTitles(t, ix.RootFeedPath()), 2)
}

func TestPublishMissingMarkerWritesNothing(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t)
	_, err := ix.Publish("<html><body>broken</body></html>", "l", []string{"心理學"})
	require.ErrorIs(t, err, ErrMissingMarker)

	assert.NoFileExists(t, ix.StructurePath())
	assert.NoFileExists(t, ix.RootFeedPath())
	_, statErr := os.Stat(filepath.Join(ix.cfg.Root, DefaultCategoryDir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublishRejectsReservedCategory(t *testing.T) {
	t.Parallel()

	ix := newTestIndexer(t)
	_, err := ix.Publish(pageHTML, "l", []string{"a", "posts"})
	assert.ErrorIs(t, err, ErrReservedName)
}

func TestPublishAssembledDocument(t *testing.T) {
	t.Parallel()

	html := assembler.Assemble(domain.Document{
		Title:   "7大自我超越方法",
		Banner:  "mountain lake.jpg",
		Intro:   "<p>什麼是自我超越？</p>",
		Outline: []string{"定義"},
		Sections: []domain.Section{
			{Header: "定義", Prose: "<h2>定義</h2>\n<p>內容</p>"},
		},
	}, assembler.Layout{FeedURL: "https://example.com/rss.xml"})

	ix := newTestIndexer(t)
	post, err := ix.Publish(html, "https://example.com/%E8%87%AA/index.html", []string{"心理學"})
	require.NoError(t, err)
	assert.Equal(t, "7大自我超越方法", post.Title)
	assert.Equal(t, "什麼是自我超越？", post.Description)
	assert.Equal(t, "https://example.com/images/mountain%20lake.jpg", post.Enclosure)
}
