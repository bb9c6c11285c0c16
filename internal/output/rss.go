package output

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/microcosm-cc/bluemonday"
	"github.com/samber/lo"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
)

const contentNamespace = "http://purl.org/rss/1.0/modules/content/"

var stripPolicy = bluemonday.StrictPolicy()

// RSS is an RSS 2.0 document. Items may carry several categories and a
// source with a url.
type RSS struct {
	XMLName          xml.Name   `xml:"rss"`
	Version          string     `xml:"version,attr"`
	ContentNamespace string     `xml:"xmlns:content,attr"`
	Channel          RSSChannel `xml:"channel"`
}

type RSSChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Generator     string    `xml:"generator,omitempty"`
	Items         []RSSItem `xml:"item"`
}

type RSSItem struct {
	XMLName     xml.Name            `xml:"item"`
	Title       string              `xml:"title"`
	Link        string              `xml:"link"`
	Description string              `xml:"description,omitempty"`
	Content     *feeds.RssContent   `xml:",omitempty"`
	Author      string              `xml:"author,omitempty"`
	Categories  []string            `xml:"category"`
	Comments    string              `xml:"comments,omitempty"`
	Enclosure   *feeds.RssEnclosure `xml:",omitempty"`
	GUID        *feeds.RssGuid      `xml:",omitempty"`
	PubDate     string              `xml:"pubDate,omitempty"`
	Source      *RSSSource          `xml:",omitempty"`
}

// RSSSource names the feed an item was read from.
type RSSSource struct {
	XMLName xml.Name `xml:"source"`
	URL     string   `xml:"url,attr"`
	Title   string   `xml:",chardata"`
}

func (w Writer) channel(title string, articles []liveboat.Article) RSS {
	return RSS{
		Version:          "2.0",
		ContentNamespace: contentNamespace,
		Channel: RSSChannel{
			Title:         title,
			Link:          w.opts.SiteURL,
			Description:   title,
			LastBuildDate: w.opts.Now.UTC().Format(time.RFC1123Z),
			Generator:     "liveboat",
			Items:         lo.Map(articles, func(a liveboat.Article, _ int) RSSItem { return w.item(a) }),
		},
	}
}

func (w Writer) item(a liveboat.Article) RSSItem {
	item := RSSItem{
		Title:   a.Title,
		Link:    a.URL,
		Author:  a.Author,
		GUID:    &feeds.RssGuid{Id: strconv.FormatInt(a.GUID, 10), IsPermaLink: "false"},
		PubDate: a.Published().Format(time.RFC1123Z),
	}
	if a.CommentsURL != nil {
		item.Comments = *a.CommentsURL
	}
	if a.EnclosureURL != nil && *a.EnclosureURL != "" {
		item.Enclosure = &feeds.RssEnclosure{Url: *a.EnclosureURL, Length: "0", Type: deref(a.EnclosureMime)}
	}
	if w.opts.IncludeContent && a.Content != "" {
		item.Description = strings.TrimSpace(stripPolicy.Sanitize(a.Content))
		item.Content = &feeds.RssContent{Content: a.Content}
	}

	if owner := a.Owner(); owner != nil && !owner.IsQuery() {
		link := owner.FeedLink()
		if link == "" {
			link = owner.URL()
		}
		item.Source = &RSSSource{URL: link, Title: owner.DisplayTitle()}
		item.Categories = owner.Tags()
	}
	return item
}

// Aggregate collects the live articles of every visible url feed, newest
// first, keeping only the first article seen for each guid.
func (w Writer) Aggregate(urlFeeds []*liveboat.Feed) []liveboat.Article {
	var articles []liveboat.Article
	for _, f := range visible(urlFeeds) {
		articles = append(articles, f.LiveWindowAt(w.opts.Now)...)
	}

	articles = lo.UniqBy(articles, func(a liveboat.Article) int64 { return a.GUID })
	slices.SortStableFunc(articles, func(a, b liveboat.Article) int {
		switch {
		case a.PublishedAt > b.PublishedAt:
			return -1
		case a.PublishedAt < b.PublishedAt:
			return 1
		}
		return 0
	})
	return articles
}

// WriteRSS writes the aggregated channel.
func (w Writer) WriteRSS(ctx context.Context, urlFeeds []*liveboat.Feed) error {
	return w.writeXML(ctx, RSSFile, w.channel(w.opts.Title, w.Aggregate(urlFeeds)))
}

// ChannelPath is where the channel for a query feed is written, relative to the build root.
func ChannelPath(f *liveboat.Feed) string {
	return ChannelsDir + "/" + f.ID() + ".xml"
}

// WriteChannels writes one channel per query feed holding its live articles.
func (w Writer) WriteChannels(ctx context.Context, queries []*liveboat.Feed) error {
	for _, q := range queries {
		if err := w.writeXML(ctx, filepath.FromSlash(ChannelPath(q)), w.channel(q.DisplayTitle(), q.LiveWindowAt(w.opts.Now))); err != nil {
			return err
		}
	}
	return nil
}

func (w Writer) writeXML(ctx context.Context, rel string, v any) error {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error encoding %s: %w", rel, err))
	}
	return w.write(ctx, rel, append([]byte(xml.Header), data...))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
