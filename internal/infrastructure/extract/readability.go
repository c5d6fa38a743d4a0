package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"

	"AutoBlogger/internal/ports"
)

const defaultMaxBytes = 5 << 20

// ReadabilityFetcher downloads pages over HTTP and keeps their main text.
type ReadabilityFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxChars  int
}

var _ ports.PageFetcher = (*ReadabilityFetcher)(nil)

// Options tunes the fetcher. Zero values select the defaults; MaxChars <= 0
// keeps the whole text.
type Options struct {
	UserAgent string
	MaxBytes  int64
	MaxChars  int
}

// NewReadabilityFetcher builds a fetcher on top of client.
func NewReadabilityFetcher(client *http.Client, opts Options) *ReadabilityFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	return &ReadabilityFetcher{
		client:    client,
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		maxChars:  opts.MaxChars,
	}
}

// Fetch downloads pageURL once. Non-HTML or empty responses yield
// ports.ErrNoContent.
func (f *ReadabilityFetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %s: %w", pageURL, resp.Status, ports.ErrNoContent)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "text") {
		return nil, fmt.Errorf("fetch %s: content type %s: %w", pageURL, ct, ports.ErrNoContent)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pageURL, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, ports.ErrNoContent)
	}
	return raw, nil
}

// Extract returns the readable text of raw, truncated to the configured
// number of characters.
func (f *ReadabilityFetcher) Extract(raw []byte, pageURL string) (string, error) {
	if len(raw) == 0 {
		return "", ports.ErrNotExtractable
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), parsed)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", pageURL, ports.ErrNotExtractable)
	}

	text := collapseBlankLines(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("extract %s: %w", pageURL, ports.ErrNotExtractable)
	}
	return truncateRunes(text, f.maxChars), nil
}

// Title returns the document <title>, or an empty string.
func (f *ReadabilityFetcher) Title(raw []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
