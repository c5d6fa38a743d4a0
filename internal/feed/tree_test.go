package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AutoBlogger/internal/domain"
)

func TestEnsureIsIdempotent(t *testing.T) {
	t.Parallel()

	tree := NewTree()
	created, err := tree.Ensure([]string{"心理學", "佛蘭克"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"心理學"}, {"心理學", "佛蘭克"}}, created)

	require.NoError(t, tree.AppendPost([]string{"心理學", "佛蘭克"}, domain.Post{Title: "first"}))

	created, err = tree.Ensure([]string{"心理學", "佛蘭克"})
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, 2, tree.Len())

	leaf, ok := tree.Lookup([]string{"心理學", "佛蘭克"})
	require.True(t, ok)
	assert.Len(t, leaf.Posts, 1)

	root, ok := tree.Lookup([]string{"心理學"})
	require.True(t, ok)
	assert.Len(t, root.Children, 1)
}

func TestEnsureRejectsBadSegments(t *testing.T) {
	t.Parallel()

	tree := NewTree()
	_, err := tree.Ensure([]string{"a", "posts"})
	assert.ErrorIs(t, err, ErrReservedName)

	for _, bad := range [][]string{{""}, {"a", " "}, {".."}, {"a/b"}} {
		_, err := tree.Ensure(bad)
		assert.ErrorIs(t, err, ErrInvalidSegment, "path %q", bad)
	}

	_, err = tree.Ensure(nil)
	assert.ErrorIs(t, err, ErrEmptyPath)
	assert.Equal(t, 0, tree.Len())
}

func TestEnsureNormalizesNames(t *testing.T) {
	t.Parallel()

	tree := NewTree()
	_, err := tree.Ensure([]string{" Café "})
	require.NoError(t, err)

	created, err := tree.Ensure([]string{"Cafe\u0301"})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestAppendPostUnknownPath(t *testing.T) {
	t.Parallel()

	err := NewTree().AppendPost([]string{"missing"}, domain.Post{})
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestTreeSaveLoadKeepsOrder(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "structure.json")
	tree := NewTree()
	for _, p := range [][]string{{"zeta", "b"}, {"alpha"}, {"zeta", "a"}} {
		_, err := tree.Ensure(p)
		require.NoError(t, err)
	}
	require.NoError(t, tree.AppendPost([]string{"zeta", "a"}, domain.Post{Title: "t", Link: "l", PubDate: "d"}))
	require.NoError(t, tree.Save(path))

	loaded, err := LoadTree(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())

	zeta, ok := loaded.Lookup([]string{"zeta"})
	require.True(t, ok)
	require.Len(t, zeta.Children, 2)
	assert.Equal(t, "b", zeta.Children[0].Name)
	assert.Equal(t, "a", zeta.Children[1].Name)
	assert.Equal(t, "t", zeta.Children[1].Posts[0].Title)

	first, _ := tree.MarshalJSON()
	second, _ := loaded.MarshalJSON()
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, string(first), string(second))
}

func TestLoadTreeReadsExistingStructure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "structure.json")
	raw := `{
    "心理學": {
        "佛蘭克": {
            "posts": [
                {"title": "自我超越", "link": "https://avoir.me/x/index.html", "description": "d", "enclosure": "https://avoir.me/images/a.jpg", "pubdate": "Mon, 02 Jan 2006 15:04:05 +0000"}
            ]
        },
        "posts": []
    }
}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	tree, err := LoadTree(path)
	require.NoError(t, err)

	leaf, ok := tree.Lookup([]string{"心理學", "佛蘭克"})
	require.True(t, ok)
	require.Len(t, leaf.Posts, 1)
	assert.Equal(t, "自我超越", leaf.Posts[0].Title)

	top, ok := tree.Lookup([]string{"心理學"})
	require.True(t, ok)
	assert.NotNil(t, top.Posts)
	assert.Empty(t, top.Posts)
}

func TestLoadTreeMissingAndMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tree, err := LoadTree(filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Len())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": [1, 2]}`), 0o644))
	_, err = LoadTree(bad)
	assert.Error(t, err)
}
