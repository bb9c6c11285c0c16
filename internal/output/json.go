package output

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/samber/lo"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
)

// ArticleJSON is a single article as the page consumes it.
type ArticleJSON struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Date          int64   `json:"date"`
	Author        string  `json:"author"`
	GUID          int64   `json:"guid"`
	Unread        bool    `json:"unread"`
	Content       string  `json:"content"`
	ContentLength int     `json:"contentLength"`
	Flags         *string `json:"flags"`
	EnclosureURL  *string `json:"enclosureUrl"`
	EnclosureMime *string `json:"enclosureMime"`
	CommentsURL   *string `json:"commentsUrl"`
}

// FeedJSON is the body of feeds/<id>.json and feeds/<id>_archive.json.
type FeedJSON struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	DisplayTitle string        `json:"displayTitle"`
	URL          string        `json:"url"`
	FeedLink     string        `json:"feedLink"`
	IsQuery      bool          `json:"isQuery"`
	IsEmpty      bool          `json:"isEmpty"`
	IsHidden     bool          `json:"isHidden"`
	ItemCount    int           `json:"itemCount"`
	Items        []ArticleJSON `json:"items"`
	Tags         []string      `json:"tags"`
}

// FeedListEntry is one line of the navigation index in feeds/feeds.json.
type FeedListEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	DisplayTitle string   `json:"displayTitle"`
	URL          string   `json:"url"`
	FeedLink     string   `json:"feedLink"`
	Hidden       bool     `json:"hidden"`
	IsQuery      bool     `json:"isQuery"`
	Tags         []string `json:"tags"`
	ItemCount    int      `json:"itemCount"`
}

// Listed returns the feeds that get JSON files: non-empty, non-hidden url
// feeds followed by non-empty query feeds.
func Listed(feeds, queries []*liveboat.Feed) []*liveboat.Feed {
	all := append(visible(feeds), queries...)
	return lo.Filter(all, func(f *liveboat.Feed, _ int) bool {
		return !f.IsEmpty()
	})
}

func toArticleJSON(a liveboat.Article) ArticleJSON {
	return ArticleJSON{
		Title:         a.Title,
		URL:           a.URL,
		Date:          a.PublishedAt,
		Author:        a.Author,
		GUID:          a.GUID,
		Unread:        a.Unread,
		Content:       a.Content,
		ContentLength: a.ContentLength,
		Flags:         a.Flags,
		EnclosureURL:  a.EnclosureURL,
		EnclosureMime: a.EnclosureMime,
		CommentsURL:   a.CommentsURL,
	}
}

// NewFeedJSON renders f with the given articles.
func NewFeedJSON(f *liveboat.Feed, articles []liveboat.Article) FeedJSON {
	return FeedJSON{
		ID:           f.ID(),
		Title:        f.Title(),
		DisplayTitle: f.DisplayTitle(),
		URL:          f.URL(),
		FeedLink:     f.FeedLink(),
		IsQuery:      f.IsQuery(),
		IsEmpty:      f.IsEmpty(),
		IsHidden:     f.Hidden(),
		ItemCount:    len(articles),
		Items:        lo.Map(articles, func(a liveboat.Article, _ int) ArticleJSON { return toArticleJSON(a) }),
		Tags:         f.Tags(),
	}
}

// NewFeedListEntry describes f for the navigation index. itemCount is the
// size of the live window.
func NewFeedListEntry(f *liveboat.Feed, itemCount int) FeedListEntry {
	return FeedListEntry{
		ID:           f.ID(),
		Title:        f.Title(),
		DisplayTitle: f.DisplayTitle(),
		URL:          f.URL(),
		FeedLink:     f.FeedLink(),
		Hidden:       f.Hidden(),
		IsQuery:      f.IsQuery(),
		Tags:         f.Tags(),
		ItemCount:    itemCount,
	}
}

// WriteJSON writes the live and archive files for every listed feed plus
// the feed list.
func (w Writer) WriteJSON(ctx context.Context, feeds, queries []*liveboat.Feed) error {
	listed := Listed(feeds, queries)

	entries := make([]FeedListEntry, 0, len(listed))
	for _, f := range listed {
		live := NewFeedJSON(f, f.LiveWindowAt(w.opts.Now))
		if err := w.writeJSON(ctx, filepath.Join(FeedsDir, f.ID()+".json"), live); err != nil {
			return err
		}

		archive := NewFeedJSON(f, f.Articles())
		if err := w.writeJSON(ctx, filepath.Join(FeedsDir, f.ID()+"_archive.json"), archive); err != nil {
			return err
		}

		entries = append(entries, NewFeedListEntry(f, live.ItemCount))
	}

	return w.writeJSON(ctx, filepath.Join(FeedsDir, FeedList), entries)
}

func (w Writer) writeJSON(ctx context.Context, rel string, v any) error {
	var (
		data []byte
		err  error
	)
	if w.opts.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error encoding %s: %w", rel, err))
	}
	return w.write(ctx, rel, data)
}
