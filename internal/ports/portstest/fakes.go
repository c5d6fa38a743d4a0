// Package portstest holds in-memory collaborators for pipeline tests.
package portstest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/ports"
)

var (
	_ ports.Searcher      = (*Searcher)(nil)
	_ ports.PageFetcher   = (*Pages)(nil)
	_ ports.ImageSource   = (*Images)(nil)
	_ ports.ArticleLedger = (*Ledger)(nil)
)

// Searcher answers queries from a fixed table. Unknown queries return nothing.
type Searcher struct {
	Results map[string][]domain.SearchResult
	Err     error

	mu      sync.Mutex
	queries []string
}

func (s *Searcher) Search(_ context.Context, query string, count int) ([]domain.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	results := s.Results[query]
	if count > 0 && len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// Queries returns every query seen so far.
func (s *Searcher) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// Pages serves page text by URL. The raw content is the text itself; URLs
// absent from Text fail to fetch.
type Pages struct {
	Text   map[string]string
	Titles map[string]string

	mu      sync.Mutex
	fetched []string
}

func (p *Pages) Fetch(_ context.Context, url string) ([]byte, error) {
	p.mu.Lock()
	p.fetched = append(p.fetched, url)
	p.mu.Unlock()
	text, ok := p.Text[url]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", url, ports.ErrNoContent)
	}
	return []byte(url + "\n" + text), nil
}

func (p *Pages) Extract(raw []byte, pageURL string) (string, error) {
	text := p.Text[pageURL]
	if text == "" {
		return "", ports.ErrNotExtractable
	}
	return text, nil
}

func (p *Pages) Title(raw []byte) string {
	url, _, _ := strings.Cut(string(raw), "\n")
	return p.Titles[url]
}

// Fetched returns every URL requested so far.
func (p *Pages) Fetched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.fetched...)
}

// Images returns the same handles for every query and writes a stub file on
// download. Queries listed in Empty return no hits.
type Images struct {
	Handles []domain.ImageHandle
	Empty   map[string]bool

	mu         sync.Mutex
	queries    []string
	downloaded []string
}

func (i *Images) SearchImages(_ context.Context, query string) ([]domain.ImageHandle, error) {
	i.mu.Lock()
	i.queries = append(i.queries, query)
	i.mu.Unlock()
	if i.Empty[query] {
		return nil, nil
	}
	return i.Handles, nil
}

func (i *Images) Download(_ context.Context, handle domain.ImageHandle, dest string) error {
	i.mu.Lock()
	i.downloaded = append(i.downloaded, dest)
	i.mu.Unlock()
	return os.WriteFile(dest, []byte(handle.URL), 0o644)
}

// Queries returns every image query seen so far.
func (i *Images) Queries() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.queries...)
}

// Downloaded returns every destination written so far.
func (i *Images) Downloaded() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.downloaded...)
}

// Ledger is an in-memory ports.ArticleLedger.
type Ledger struct {
	mu        sync.Mutex
	published map[string]domain.PublishedArticle
}

func (l *Ledger) AlreadyPublished(_ context.Context, topics []string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]bool, len(topics))
	for _, topic := range topics {
		if _, ok := l.published[topic]; ok {
			out[topic] = true
		}
	}
	return out, nil
}

func (l *Ledger) SavePublished(_ context.Context, article domain.PublishedArticle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.published == nil {
		l.published = map[string]domain.PublishedArticle{}
	}
	l.published[article.Topic] = article
	return nil
}

// Saved returns the stored row for topic.
func (l *Ledger) Saved(topic string) (domain.PublishedArticle, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.published[topic]
	return a, ok
}
