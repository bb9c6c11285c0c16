package output

import (
	"context"
	"encoding/xml"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/jdholdren/liveboat/internal/liveboat"
)

// OPML represents the root of an OPML document.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains OPML metadata.
type Head struct {
	Title        string `xml:"title,omitempty"`
	DateCreated  string `xml:"dateCreated,omitempty"`
	DateModified string `xml:"dateModified,omitempty"`
}

// Body contains the outlines.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a single outline element (tag group or feed).
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// BuildOPML groups visible url feeds under one outline per tag, in the order
// tags first appear. Untagged url feeds and every query feed sit at the top
// level after the groups.
func (w Writer) BuildOPML(urlFeeds, queries []*liveboat.Feed) OPML {
	now := w.opts.Now.UTC().Format(time.RFC1123Z)
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:        w.opts.Title,
			DateCreated:  now,
			DateModified: now,
		},
	}

	feeds := visible(urlFeeds)
	tags := lo.Uniq(lo.FlatMap(feeds, func(f *liveboat.Feed, _ int) []string { return f.Tags() }))
	for _, tag := range tags {
		members := lo.Filter(feeds, func(f *liveboat.Feed, _ int) bool { return slices.Contains(f.Tags(), tag) })
		doc.Body.Outlines = append(doc.Body.Outlines, Outline{
			Text:     tag,
			Title:    tag,
			Outlines: lo.Map(members, func(f *liveboat.Feed, _ int) Outline { return feedOutline(f) }),
		})
	}

	var top []*liveboat.Feed
	top = append(top, lo.Filter(feeds, func(f *liveboat.Feed, _ int) bool { return len(f.Tags()) == 0 })...)
	top = append(top, queries...)
	slices.SortStableFunc(top, func(a, b *liveboat.Feed) int { return a.OrderIndex() - b.OrderIndex() })

	for _, f := range top {
		if f.IsQuery() {
			doc.Body.Outlines = append(doc.Body.Outlines, w.queryOutline(f))
			continue
		}
		doc.Body.Outlines = append(doc.Body.Outlines, feedOutline(f))
	}
	return doc
}

func feedOutline(f *liveboat.Feed) Outline {
	return Outline{
		Text:    f.DisplayTitle(),
		Title:   f.DisplayTitle(),
		Type:    "rss",
		XMLURL:  f.URL(),
		HTMLURL: f.FeedLink(),
	}
}

func (w Writer) queryOutline(f *liveboat.Feed) Outline {
	return Outline{
		Text:    f.DisplayTitle(),
		Title:   f.DisplayTitle(),
		Type:    "rss",
		XMLURL:  w.opts.SiteURL + ChannelPath(f),
		HTMLURL: w.opts.SiteURL,
	}
}

// WriteOPML writes the subscription list.
func (w Writer) WriteOPML(ctx context.Context, urlFeeds, queries []*liveboat.Feed) error {
	return w.writeXML(ctx, OPMLFile, w.BuildOPML(urlFeeds, queries))
}
