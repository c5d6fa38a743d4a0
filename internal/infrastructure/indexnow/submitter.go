// Package indexnow pushes the links of the site feed to the IndexNow API.
package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const defaultEndpoint = "https://api.indexnow.org/indexnow"

// Submitter posts URL lists to IndexNow for one host.
type Submitter struct {
	endpoint string
	apiKey   string
	host     string
	client   *http.Client
	parser   *gofeed.Parser
	logger   *slog.Logger
}

var _ ports.URLSubmitter = (*Submitter)(nil)

// NewSubmitter registers the IndexNow key for host.
func NewSubmitter(endpoint, apiKey, host string, logger *slog.Logger) *Submitter {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Submitter{
		endpoint: endpoint,
		apiKey:   apiKey,
		host:     host,
		client:   &http.Client{Timeout: 20 * time.Second},
		parser:   gofeed.NewParser(),
		logger:   logger,
	}
}

// FeedLinks returns the item links of the feed at source, which is either an
// http(s) URL or a local file path.
func (s *Submitter) FeedLinks(ctx context.Context, source string) ([]string, error) {
	var (
		feed *gofeed.Feed
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		feed, err = s.parser.ParseURLWithContext(source, ctx)
	} else {
		var f *os.File
		f, err = os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open feed %s: %w", source, err)
		}
		defer f.Close()
		feed, err = s.parser.Parse(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source, err)
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if link := strings.TrimSpace(item.Link); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

// Submit posts urls in one request.
func (s *Submitter) Submit(ctx context.Context, urls []string) error {
	if s.apiKey == "" || s.host == "" {
		return fmt.Errorf("indexnow submitter misconfigured")
	}
	if len(urls) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"host":    s.host,
		"key":     s.apiKey,
		"urlList": urls,
	})
	if err != nil {
		return fmt.Errorf("marshal indexnow payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit urls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("indexnow error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	s.logger.Info("urls submitted", "host", s.host, "count", len(urls), "status", resp.StatusCode)
	return nil
}

// SubmitFeed submits every item link of the feed at source.
func (s *Submitter) SubmitFeed(ctx context.Context, source string) (int, error) {
	links, err := s.FeedLinks(ctx, source)
	if err != nil {
		return 0, err
	}
	if err := s.Submit(ctx, links); err != nil {
		return 0, err
	}
	return len(links), nil
}
