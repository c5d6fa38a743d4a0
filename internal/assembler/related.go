package assembler

import (
	_ "embed"
	"strings"
)

//go:embed related.html
var relatedTemplate string

// relatedWidget renders the footer that lists the other posts of the site
// feed, newest first.
func relatedWidget(layout Layout) string {
	return strings.NewReplacer(
		"{{RELATED_LABEL}}", layout.RelatedLabel,
		"{{FEED_URL}}", layout.FeedURL,
	).Replace(relatedTemplate)
}
