package indexnow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>avoir.me</title>
    <link>https://avoir.me</link>
    <description>site feed</description>
    <item>
      <title>First</title>
      <link>https://avoir.me/first/index.html</link>
      <description>one</description>
    </item>
    <item>
      <title>Second</title>
      <link>https://avoir.me/second/index.html</link>
      <description>two</description>
    </item>
  </channel>
</rss>`

type payload struct {
	Host    string   `json:"host"`
	Key     string   `json:"key"`
	URLList []string `json:"urlList"`
}

func TestSubmitFeedFromFile(t *testing.T) {
	t.Parallel()

	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "rss.xml")
	require.NoError(t, os.WriteFile(path, []byte(siteFeed), 0o644))

	s := NewSubmitter(srv.URL, "key-123", "avoir.me", nil)
	n, err := s.SubmitFeed(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, payload{
		Host:    "avoir.me",
		Key:     "key-123",
		URLList: []string{"https://avoir.me/first/index.html", "https://avoir.me/second/index.html"},
	}, got)
}

func TestFeedLinksFromURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(siteFeed))
	}))
	t.Cleanup(srv.Close)

	links, err := NewSubmitter("", "k", "h", nil).FeedLinks(context.Background(), srv.URL+"/rss.xml")
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestSubmitErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key not valid", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	err := NewSubmitter(srv.URL, "bad", "avoir.me", nil).Submit(context.Background(), []string{"https://avoir.me/a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	err = NewSubmitter(srv.URL, "", "avoir.me", nil).Submit(context.Background(), []string{"x"})
	assert.ErrorContains(t, err, "misconfigured")

	_, err = NewSubmitter(srv.URL, "k", "h", nil).FeedLinks(context.Background(), filepath.Join(t.TempDir(), "none.xml"))
	assert.Error(t, err)
}
