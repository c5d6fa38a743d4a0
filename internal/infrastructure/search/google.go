package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

const (
	defaultEndpoint  = "https://www.google.com/search"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// snippetSelectors are tried in order; the result page markup changes often.
var snippetSelectors = []string{"span.aCOpRe", "div.IsZvec", "div.VwiC3b", "div.s3v9rd"}

// GoogleSearcher scrapes the organic results of a Google result page.
type GoogleSearcher struct {
	client    *http.Client
	endpoint  string
	userAgent string
}

var _ ports.Searcher = (*GoogleSearcher)(nil)

// NewGoogleSearcher wires an HTTP client; empty endpoint and user agent fall
// back to the public defaults.
func NewGoogleSearcher(client *http.Client, endpoint, userAgent string) *GoogleSearcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &GoogleSearcher{client: client, endpoint: endpoint, userAgent: userAgent}
}

// Search returns at most count results for query, in page order.
func (g *GoogleSearcher) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	pageURL, err := buildSearchURL(g.endpoint, query, count)
	if err != nil {
		return nil, err
	}

	doc, err := g.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return parseResults(doc, count), nil
}

func (g *GoogleSearcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return doc, nil
}

func parseResults(doc *goquery.Document, count int) []domain.SearchResult {
	var results []domain.SearchResult
	doc.Find("div.tF2Cxc").EachWithBreak(func(_ int, g *goquery.Selection) bool {
		if count > 0 && len(results) >= count {
			return false
		}

		href, ok := g.Find("a").First().Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return true
		}

		var snippet string
		for _, sel := range snippetSelectors {
			if s := g.Find(sel).First(); s.Length() > 0 {
				snippet = strings.TrimSpace(s.Text())
				break
			}
		}

		results = append(results, domain.SearchResult{
			Title:   strings.TrimSpace(g.Find("h3").First().Text()),
			URL:     href,
			Snippet: snippet,
		})
		return true
	})
	return results
}

func buildSearchURL(base, query string, count int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint %s: %w", base, err)
	}

	q := parsed.Query()
	q.Set("q", query)
	if count > 0 {
		q.Set("num", strconv.Itoa(count))
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
