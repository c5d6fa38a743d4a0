// Package frontmatter generates everything that precedes the article body:
// title, banner and middle images, meta tags and the intro paragraph.
package frontmatter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"AutoBlogger/internal/generation"
	"AutoBlogger/internal/logging"
	"AutoBlogger/internal/ports"
)

const (
	StageTitle    = "title"
	StageBanner   = "banner"
	StageMiddle   = "middle-image"
	StageMetadata = "metadata"
	StageIntro    = "intro"
)

// Request carries what the front matter stages need.
type Request struct {
	Topic    string
	Language string
	Outline  []string
}

// FrontMatter is the generated head of one article. Banner and MiddleImage
// are file names relative to the images directory.
type FrontMatter struct {
	Title       string
	Metadata    string
	Banner      string
	MiddleImage string
	Intro       string
}

// Writer runs the front matter stages.
type Writer struct {
	inv       *generation.Invoker
	images    ports.ImageSource
	imagesDir string
	logger    *slog.Logger
}

// NewWriter wires the invoker and the image source. Images are stored in imagesDir.
func NewWriter(inv *generation.Invoker, images ports.ImageSource, imagesDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Writer{inv: inv, images: images, imagesDir: imagesDir, logger: logger}
}

// Write runs title, banner, middle image, metadata and intro in that order.
func (w *Writer) Write(ctx context.Context, req Request) (FrontMatter, error) {
	var fm FrontMatter
	if w.inv == nil || w.images == nil {
		return fm, fmt.Errorf("front matter writer misconfigured")
	}

	var err error
	if fm.Title, err = w.Title(ctx, req.Topic, req.Outline, req.Language); err != nil {
		return fm, err
	}
	if fm.Banner, err = w.Image(ctx, StageBanner, fm.Title, nil, ""); err != nil {
		return fm, err
	}
	if fm.MiddleImage, err = w.Image(ctx, StageMiddle, fm.Title, req.Outline, strings.TrimSuffix(fm.Banner, imageExt)); err != nil {
		return fm, err
	}

	fm.Metadata, err = generation.Run(ctx, w.inv, StageMetadata, metadataPrompt(req.Topic, req.Outline, req.Language), generation.Text)
	if err != nil {
		return fm, fmt.Errorf("generate metadata: %w", err)
	}
	fm.Intro, err = generation.Run(ctx, w.inv, StageIntro, introPrompt(fm.Title, req.Outline, req.Language), generation.NonEmptyText)
	if err != nil {
		return fm, fmt.Errorf("generate intro: %w", err)
	}

	w.logger.Info("front matter ready", "topic", req.Topic, "title", fm.Title, "banner", fm.Banner, "middle", fm.MiddleImage)
	return fm, nil
}

// Title asks for a JSON object with a non-empty title.
func (w *Writer) Title(ctx context.Context, topic string, outline []string, lang string) (string, error) {
	title, err := generation.Run(ctx, w.inv, StageTitle, titlePrompt(topic, outline, lang), parseTitle)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}
	return title, nil
}

const imageExt = ".jpg"

// Image derives one image query and downloads the first hit. When previous is
// set the query must cover another aspect of the article. The returned name is
// relative to the images directory.
func (w *Writer) Image(ctx context.Context, stage, title string, outline []string, previous string) (string, error) {
	if err := os.MkdirAll(w.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	name, err := generation.Run(ctx, w.inv, stage, imagePrompt(title, outline, previous), func(completion string) generation.Attempt[string] {
		return w.download(ctx, completion)
	})
	if err != nil {
		return "", fmt.Errorf("fetch %s image: %w", stage, err)
	}
	return name, nil
}

func (w *Writer) download(ctx context.Context, completion string) generation.Attempt[string] {
	queries := generation.Strings(generation.DecodeList[string](completion))
	if len(queries) == 0 {
		return generation.Malformed[string](nil)
	}
	query := queries[0]

	hits, err := w.images.SearchImages(ctx, query)
	if err != nil {
		return generation.Attempt[string]{Failure: &generation.Failure{Kind: generation.FailureTransport, Err: err}}
	}
	if len(hits) == 0 {
		return generation.Malformed[string](fmt.Errorf("no image for %q", query))
	}

	name := FileName(query)
	if err := w.images.Download(ctx, hits[0], filepath.Join(w.imagesDir, name)); err != nil {
		return generation.Attempt[string]{Failure: &generation.Failure{Kind: generation.FailureTransport, Err: err}}
	}
	w.logger.Debug("image downloaded", "query", query, "file", name)
	return generation.Succeeded(name)
}

// FileName turns an image query into a file name inside the images directory.
func FileName(query string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(query))
	return clean + imageExt
}

func parseTitle(completion string) generation.Attempt[string] {
	type titled struct {
		Title string `json:"title" yaml:"title"`
	}
	got, ok := generation.DecodeObject[titled](completion)
	title := strings.TrimSpace(got.Title)
	if !ok || title == "" {
		return generation.Malformed[string](nil)
	}
	return generation.Succeeded(title)
}
