// Package feed maintains the category index of the site and its RSS feeds.
//
// The structure file holds the whole category tree. Every category directory
// under category/ owns an rss.xml and the site root owns the site-wide one.
// Feeds only ever grow: items are appended and existing ones are never
// dropped or reordered. A single writer per site directory is assumed.
package feed

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"AutoBlogger/internal/domain"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const (
	DefaultStructureFile = "structure.json"
	DefaultCategoryDir   = "category"
	DefaultFeedFile      = "rss.xml"
)

// Config locates the index state on disk.
type Config struct {
	// Root is the site directory.
	Root string
	// SiteRoot is the public base URL, e.g. https://example.com.
	SiteRoot      string
	SiteTitle     string
	Description   string
	StructureFile string
	CategoryDir   string
	FeedFile      string
}

func (c Config) withDefaults() Config {
	if c.StructureFile == "" {
		c.StructureFile = DefaultStructureFile
	}
	if c.CategoryDir == "" {
		c.CategoryDir = DefaultCategoryDir
	}
	if c.FeedFile == "" {
		c.FeedFile = DefaultFeedFile
	}
	if c.SiteTitle == "" {
		c.SiteTitle = c.SiteRoot
	}
	return c
}

// Indexer merges published documents into the category tree and feeds.
type Indexer struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.Publisher = (*Indexer)(nil)

// NewIndexer builds an indexer for one site directory.
func NewIndexer(cfg Config, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Indexer{cfg: cfg.withDefaults(), now: time.Now, logger: logger}
}

// SetClock replaces the time source used for pubDate and lastBuildDate.
func (ix *Indexer) SetClock(now func() time.Time) {
	if now != nil {
		ix.now = now
	}
}

// StructurePath is the location of the structure file.
func (ix *Indexer) StructurePath() string {
	return filepath.Join(ix.cfg.Root, ix.cfg.StructureFile)
}

// RootFeedPath is the location of the site-wide feed.
func (ix *Indexer) RootFeedPath() string {
	return filepath.Join(ix.cfg.Root, ix.cfg.FeedFile)
}

// CategoryFeedPath is the feed file of the category at path.
func (ix *Indexer) CategoryFeedPath(path []string) string {
	return filepath.Join(ix.categoryDir(path), ix.cfg.FeedFile)
}

func (ix *Indexer) categoryDir(path []string) string {
	return filepath.Join(append([]string{ix.cfg.Root, ix.cfg.CategoryDir}, path...)...)
}

// EnsureCategoryPath creates every missing category along path, together with
// its directory and an empty feed. Calling it again changes nothing.
func (ix *Indexer) EnsureCategoryPath(path []string) error {
	tree, err := LoadTree(ix.StructurePath())
	if err != nil {
		return err
	}
	if _, err := ix.ensure(tree, path); err != nil {
		return err
	}
	return tree.Save(ix.StructurePath())
}

func (ix *Indexer) ensure(tree *Tree, path []string) ([]string, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	created, err := tree.Ensure(path)
	if err != nil {
		return nil, err
	}
	for _, prefix := range created {
		ix.logger.Info("category created", "path", strings.Join(prefix, "/"))
	}

	for depth := range path {
		prefix := path[:depth+1]
		if err := os.MkdirAll(ix.categoryDir(prefix), 0o755); err != nil {
			return nil, fmt.Errorf("create category dir: %w", err)
		}
		feedPath := ix.CategoryFeedPath(prefix)
		if _, err := os.Stat(feedPath); err == nil {
			continue
		}
		if err := WriteFeed(feedPath, NewFeed(prefix[len(prefix)-1], ix.categoryLink(prefix), "")); err != nil {
			return nil, err
		}
	}
	return path, nil
}

// RecordPost extracts the post record from html, ensures the category path
// and appends the post to the leaf category.
func (ix *Indexer) RecordPost(html, link string, path []string) (domain.Post, error) {
	post, err := ExtractPost(html, link, ix.cfg.SiteRoot, ix.now())
	if err != nil {
		return domain.Post{}, err
	}
	if _, err := ix.recordPost(post, path); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (ix *Indexer) recordPost(post domain.Post, path []string) ([]string, error) {
	tree, err := LoadTree(ix.StructurePath())
	if err != nil {
		return nil, err
	}
	path, err = ix.ensure(tree, path)
	if err != nil {
		return nil, err
	}
	if err := tree.AppendPost(path, post); err != nil {
		return nil, err
	}
	if err := tree.Save(ix.StructurePath()); err != nil {
		return nil, err
	}
	return path, nil
}

// UpdateFeed appends one item for post to the feed at feedPath, creating the
// feed when it does not exist yet.
func (ix *Indexer) UpdateFeed(feedPath string, post domain.Post) error {
	feed, ok, err := ReadFeed(feedPath)
	if err != nil {
		return err
	}
	if !ok {
		feed = NewFeed(filepath.Base(filepath.Dir(feedPath)), "", "")
	}
	feed.Append(ItemFromPost(post))
	return WriteFeed(feedPath, feed)
}

// UpdateRootFeed refreshes lastBuildDate of the site-wide feed and appends
// one item for post.
func (ix *Indexer) UpdateRootFeed(post domain.Post) error {
	feedPath := ix.RootFeedPath()
	feed, ok, err := ReadFeed(feedPath)
	if err != nil {
		return err
	}
	if !ok {
		feed = NewFeed(ix.cfg.SiteTitle, ix.cfg.SiteRoot, ix.cfg.Description)
	}
	feed.Channel.LastBuildDate = ix.now().Format(PubDateLayout)
	feed.Append(ItemFromPost(post))
	return WriteFeed(feedPath, feed)
}

// Publish records the post in the tree, appends it to the site-wide feed and
// to the feed of every category on path, from the top-level one to the leaf.
// Nothing is written when html lacks a marker.
func (ix *Indexer) Publish(html, link string, path []string) (domain.Post, error) {
	post, err := ExtractPost(html, link, ix.cfg.SiteRoot, ix.now())
	if err != nil {
		return domain.Post{}, err
	}

	normalized, err := ix.recordPost(post, path)
	if err != nil {
		return domain.Post{}, err
	}
	if err := ix.UpdateRootFeed(post); err != nil {
		return domain.Post{}, err
	}
	for depth := range normalized {
		if err := ix.UpdateFeed(ix.CategoryFeedPath(normalized[:depth+1]), post); err != nil {
			return domain.Post{}, err
		}
	}

	ix.logger.Info("post published", "title", post.Title, "link", post.Link, "category", strings.Join(normalized, "/"))
	return post, nil
}

func (ix *Indexer) categoryLink(path []string) string {
	if ix.cfg.SiteRoot == "" {
		return ""
	}
	link, err := url.JoinPath(ix.cfg.SiteRoot, append([]string{ix.cfg.CategoryDir}, path...)...)
	if err != nil {
		return ""
	}
	return link + "/"
}
