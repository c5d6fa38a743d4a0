// Package assembler renders a finished article into the fixed page skeleton.
//
// Three elements of the output are read back by the feed indexer and must
// stay stable: the <title>, the src of img.banner and the first <p> inside
// div.description.
package assembler

import (
	"fmt"
	"strings"

	"AutoBlogger/internal/domain"
)

const (
	DefaultTOCLabel     = "文章目錄"
	DefaultRelatedLabel = "延伸閱讀"
	DefaultStylesheet   = "../blog.css"
	DefaultImagesPath   = "../images/"
	DefaultImageCredit  = "Image Source: Pixabay"
)

// Layout holds the configurable strings of the skeleton.
type Layout struct {
	TOCLabel     string
	RelatedLabel string
	Stylesheet   string
	ImagesPath   string
	ImageCredit  string
	// FeedURL is the site-wide feed read by the related articles widget.
	FeedURL string
}

func (l Layout) withDefaults() Layout {
	if l.TOCLabel == "" {
		l.TOCLabel = DefaultTOCLabel
	}
	if l.RelatedLabel == "" {
		l.RelatedLabel = DefaultRelatedLabel
	}
	if l.Stylesheet == "" {
		l.Stylesheet = DefaultStylesheet
	}
	if l.ImagesPath == "" {
		l.ImagesPath = DefaultImagesPath
	}
	if l.ImageCredit == "" {
		l.ImageCredit = DefaultImageCredit
	}
	return l
}

// Assemble renders doc. It performs no I/O and is deterministic.
func Assemble(doc domain.Document, layout Layout) string {
	layout = layout.withDefaults()

	var b strings.Builder
	b.WriteString("<html>\n<head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", doc.Title)
	if meta := strings.TrimSpace(doc.Metadata); meta != "" {
		b.WriteString(meta)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", layout.Stylesheet)
	b.WriteString("</head>\n\n<body>\n")
	fmt.Fprintf(&b, "<img class=\"banner\" src=\"%s%s\">\n", layout.ImagesPath, doc.Banner)
	b.WriteString("<div class=\"blog-type\">Blog</div>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", doc.Title)
	b.WriteString("<div class=\"description\">\n")
	b.WriteString(introParagraph(doc.Intro))
	b.WriteString("\n</div>\n\n")

	if doc.MiddleImage != "" {
		b.WriteString("<section class=\"middle-img\">\n<figure>\n")
		fmt.Fprintf(&b, "<img class=\"middle-img-edit\" src=\"%s%s\">\n", layout.ImagesPath, doc.MiddleImage)
		fmt.Fprintf(&b, "<figcaption>%s</figcaption></figure>\n</section>\n\n", layout.ImageCredit)
	}

	b.WriteString("<div class=\"content-page\">\n")
	fmt.Fprintf(&b, "<h2>%s</h2>\n<ul>\n", layout.TOCLabel)
	for _, header := range doc.Outline {
		fmt.Fprintf(&b, "  <li>%s</li>\n", header)
	}
	b.WriteString("</ul>\n</div>\n\n<div class=\"main\">\n")

	var body strings.Builder
	for _, sec := range doc.Sections {
		body.WriteString(sec.Prose)
		body.WriteString("\n\n")
	}
	b.WriteString(WrapLines(body.String()))
	b.WriteString("\n")

	b.WriteString(relatedWidget(layout))
	b.WriteString("\n</div>\n</body>\n</html>\n")
	return b.String()
}

// WrapLines wraps every non-empty line that is not already markup in <p>.
// Lines opening with <strong> count as text.
func WrapLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || (strings.HasPrefix(trimmed, "<") && !strings.HasPrefix(trimmed, "<strong>")) {
			continue
		}
		lines[i] = "<p>" + trimmed + "</p>"
	}
	return strings.Join(lines, "\n")
}

// introParagraph guarantees the description block holds a paragraph.
func introParagraph(intro string) string {
	intro = strings.TrimSpace(intro)
	if strings.Contains(intro, "<p") {
		return intro
	}
	return "<p>" + intro + "</p>"
}
