package feed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AutoBlogger/internal/domain"
)

// PubDateLayout is the RFC 822 style timestamp used in feeds and posts.
const PubDateLayout = time.RFC1123Z

// ErrMissingMarker is returned when an assembled page lacks the title, the
// banner image or the description paragraph.
var ErrMissingMarker = errors.New("document marker missing")

// ExtractPost reads the post record out of an assembled page. Relative banner
// sources are resolved against siteRoot.
func ExtractPost(html, link, siteRoot string, now time.Time) (domain.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Post{}, fmt.Errorf("parse document: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return domain.Post{}, fmt.Errorf("%w: <title>", ErrMissingMarker)
	}

	src, _ := doc.Find("img.banner").First().Attr("src")
	src = strings.TrimSpace(src)
	if src == "" {
		return domain.Post{}, fmt.Errorf("%w: img.banner src", ErrMissingMarker)
	}
	enclosure, err := AbsoluteURL(siteRoot, src)
	if err != nil {
		return domain.Post{}, err
	}

	paragraph := doc.Find("div.description").First().Find("p").First()
	if paragraph.Length() == 0 {
		return domain.Post{}, fmt.Errorf("%w: div.description p", ErrMissingMarker)
	}

	return domain.Post{
		Title:       title,
		Link:        link,
		Description: strings.TrimSpace(paragraph.Text()),
		Enclosure:   enclosure,
		PubDate:     now.Format(PubDateLayout),
	}, nil
}

// AbsoluteURL resolves an image source against the site root. Leading "./"
// and "../" segments are dropped since pages live one level below the root.
func AbsoluteURL(siteRoot, src string) (string, error) {
	if u, err := url.Parse(src); err == nil && (u.IsAbs() || u.Host != "") {
		return src, nil
	}

	rest := src
	for {
		switch {
		case strings.HasPrefix(rest, "../"):
			rest = rest[len("../"):]
		case strings.HasPrefix(rest, "./"):
			rest = rest[len("./"):]
		case strings.HasPrefix(rest, "/"):
			rest = rest[1:]
		default:
			joined, err := url.JoinPath(siteRoot, rest)
			if err != nil {
				return "", fmt.Errorf("resolve %q against %q: %w", src, siteRoot, err)
			}
			return joined, nil
		}
	}
}
