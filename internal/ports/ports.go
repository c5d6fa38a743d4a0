package ports

import (
	"context"
	"errors"
	"iter"

	"AutoBlogger/internal/domain"
)

var (
	// ErrNoContent is returned by PageFetcher.Fetch when a URL yields nothing to read.
	ErrNoContent = errors.New("no content")
	// ErrNotExtractable is returned by PageFetcher.Extract when no main text is found.
	ErrNotExtractable = errors.New("not extractable")
)

// Searcher returns ranked results for a web query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error)
}

// PageFetcher downloads a single page and turns it into plain text.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	Extract(raw []byte, pageURL string) (string, error)
	Title(raw []byte) string
}

// Generator streams a completion for one prompt as text fragments.
type Generator interface {
	Stream(ctx context.Context, req domain.GenerationRequest) iter.Seq2[string, error]
}

// ImageSource finds and downloads images for article banners.
type ImageSource interface {
	SearchImages(ctx context.Context, query string) ([]domain.ImageHandle, error)
	Download(ctx context.Context, handle domain.ImageHandle, dest string) error
}

// ArticleLedger remembers which topics were already published.
type ArticleLedger interface {
	AlreadyPublished(ctx context.Context, topics []string) (map[string]bool, error)
	SavePublished(ctx context.Context, article domain.PublishedArticle) error
}

// Publisher merges a finished document into the site index and feeds.
type Publisher interface {
	Publish(html, link string, category []string) (domain.Post, error)
}

// URLSubmitter pushes published URLs to a search-engine indexing API.
type URLSubmitter interface {
	Submit(ctx context.Context, urls []string) error
}
