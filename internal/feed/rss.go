package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"AutoBlogger/internal/domain"
)

const (
	rssVersion    = "2.0"
	enclosureType = "image/jpeg"
)

// Feed is an RSS 2.0 document.
type Feed struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Channel Channel  `xml:"channel"`
}

// Channel keeps the known channel fields, any other element found in an
// existing file, and the items in file order.
type Channel struct {
	Title         string       `xml:"title,omitempty"`
	Link          string       `xml:"link,omitempty"`
	Description   string       `xml:"description,omitempty"`
	LastBuildDate string       `xml:"lastBuildDate,omitempty"`
	Extra         []rawElement `xml:",any"`
	Items         []Item       `xml:"item"`
}

// UnmarshalXML maps only un-namespaced elements onto the known fields, so
// elements like <atom:link> end up in Extra instead of replacing Link.
func (c *Channel) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := c.decodeChild(dec, tok); err != nil {
				return err
			}
		}
	}
}

func (c *Channel) decodeChild(dec *xml.Decoder, start xml.StartElement) error {
	var field *string
	if start.Name.Space == "" {
		switch start.Name.Local {
		case "title":
			field = &c.Title
		case "link":
			field = &c.Link
		case "description":
			field = &c.Description
		case "lastBuildDate":
			field = &c.LastBuildDate
		case "item":
			var item Item
			if err := dec.DecodeElement(&item, &start); err != nil {
				return err
			}
			c.Items = append(c.Items, item)
			return nil
		}
	}
	if field != nil {
		return dec.DecodeElement(field, &start)
	}

	var extra rawElement
	if err := dec.DecodeElement(&extra, &start); err != nil {
		return err
	}
	c.Extra = append(c.Extra, extra)
	return nil
}

type rawElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Item is one published post.
type Item struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	Description string     `xml:"description"`
	Enclosure   *Enclosure `xml:"enclosure"`
	PubDate     string     `xml:"pubDate"`
}

// Enclosure references the banner image of a post.
type Enclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// ItemFromPost builds the feed item for a post record.
func ItemFromPost(post domain.Post) Item {
	item := Item{
		Title:       post.Title,
		Link:        post.Link,
		Description: post.Description,
		PubDate:     post.PubDate,
	}
	if post.Enclosure != "" {
		item.Enclosure = &Enclosure{URL: post.Enclosure, Type: enclosureType}
	}
	return item
}

// NewFeed returns an empty feed with the given channel header.
func NewFeed(title, link, description string) *Feed {
	return &Feed{
		Version: rssVersion,
		Channel: Channel{Title: title, Link: link, Description: description},
	}
}

// Append adds item after every existing item.
func (f *Feed) Append(item Item) {
	f.Channel.Items = append(f.Channel.Items, item)
}

// ReadFeed parses the feed at path. A file whose root is a bare <channel> is
// accepted and upgraded to an <rss> document. ok is false when the file does
// not exist or is empty.
func ReadFeed(path string) (feed *Feed, ok bool, err error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read feed %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false, nil
	}

	feed, err = DecodeFeed(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("parse feed %s: %w", path, err)
	}
	return feed, true, nil
}

// DecodeFeed reads an RSS document or a bare channel.
func DecodeFeed(r io.Reader) (*Feed, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "rss":
			var feed Feed
			if err := dec.DecodeElement(&feed, &start); err != nil {
				return nil, err
			}
			if feed.Version == "" {
				feed.Version = rssVersion
			}
			return &feed, nil
		case "channel":
			feed := &Feed{Version: rssVersion}
			if err := dec.DecodeElement(&feed.Channel, &start); err != nil {
				return nil, err
			}
			return feed, nil
		default:
			return nil, fmt.Errorf("unexpected root element <%s>", start.Name.Local)
		}
	}
}

// WriteFeed writes the feed pretty-printed with an XML declaration.
func WriteFeed(path string, feed *Feed) error {
	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write feed %s: %w", path, err)
	}
	return nil
}
