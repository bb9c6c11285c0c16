package liveboat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Feed is either a subscribed url feed or a query feed built from a saved filter.
type Feed struct {
	id           string
	title        string
	displayTitle string
	url          string
	feedLink     string
	hidden       bool
	tags         []string
	orderIndex   int
	isQuery      bool
	sorted       bool

	articles []Article
}

// NewFeed creates an empty url feed from the cache metadata.
func NewFeed(url, title, feedLink string) *Feed {
	return &Feed{
		id:           FeedID(url),
		title:        title,
		displayTitle: title,
		url:          url,
		feedLink:     feedLink,
	}
}

// NewQueryFeed creates an empty query feed. Query feeds have no url or site link.
func NewQueryFeed(decl QueryFeed) *Feed {
	return &Feed{
		id:           FeedID(decl.Title),
		title:        decl.Title,
		displayTitle: decl.Title,
		orderIndex:   decl.OrderIndex,
		isQuery:      true,
	}
}

// Apply merges the subscription line for this feed onto it.
func (f *Feed) Apply(decl URLFeed) {
	f.tags = append([]string(nil), decl.Tags...)
	f.hidden = decl.Hidden
	f.orderIndex = decl.OrderIndex
	if decl.TitleOverride != nil {
		f.displayTitle = *decl.TitleOverride
	}
}

// AddArticle attaches a copy of a to the feed. Url feeds become the article's owner.
func (f *Feed) AddArticle(a Article) {
	if !f.isQuery {
		a.owner = f
	}
	f.articles = append(f.articles, a)
	f.sorted = false
}

// SortArticles orders articles newest first. Equal timestamps keep insertion order.
func (f *Feed) SortArticles() {
	sort.SliceStable(f.articles, func(i, j int) bool {
		return f.articles[i].PublishedAt > f.articles[j].PublishedAt
	})
	f.sorted = true
}

func (f *Feed) ID() string           { return f.id }
func (f *Feed) Title() string        { return f.title }
func (f *Feed) DisplayTitle() string { return f.displayTitle }
func (f *Feed) URL() string          { return f.url }
func (f *Feed) FeedLink() string     { return f.feedLink }
func (f *Feed) Hidden() bool         { return f.hidden }
func (f *Feed) IsQuery() bool        { return f.isQuery }
func (f *Feed) IsSorted() bool       { return f.sorted }
func (f *Feed) OrderIndex() int      { return f.orderIndex }
func (f *Feed) IsEmpty() bool        { return len(f.articles) == 0 }
func (f *Feed) Len() int             { return len(f.articles) }

// Tags returns a copy of the feed's tags.
func (f *Feed) Tags() []string {
	return append([]string{}, f.tags...)
}

// Articles is the full (archive) article list. The slice aliases the
// feed's storage so callers can update articles in place.
func (f *Feed) Articles() []Article {
	return f.articles
}

// UnreadCount is the number of unread articles.
func (f *Feed) UnreadCount() int {
	n := 0
	for _, a := range f.articles {
		if a.Unread {
			n++
		}
	}
	return n
}

// AttributeValue resolves the feed attributes used by filter expressions.
//
// Asking for latest_article_age before [Feed.SortArticles] panics with [ErrNotSorted].
func (f *Feed) AttributeValue(name string) (string, bool) {
	return f.attributeAt(name, time.Now())
}

func (f *Feed) attributeAt(name string, now time.Time) (string, bool) {
	switch name {
	case "feedtitle":
		return f.title, true
	case "rssurl":
		return f.url, true
	case "feedlink":
		return f.feedLink, true
	case "total_count":
		return strconv.Itoa(len(f.articles)), true
	case "tags":
		return strings.Join(f.tags, " "), true
	case "unread_count":
		return strconv.Itoa(f.UnreadCount()), true
	case "latest_article_age":
		if f.IsEmpty() {
			return "", true
		}
		if !f.sorted {
			panic(fmt.Errorf("latest_article_age on %q: %w", f.url, ErrNotSorted))
		}
		return strconv.Itoa(f.articles[0].AgeAt(now)), true
	case "description", "feeddate", "feedindex":
		return "", true
	}

	return "", false
}

func (f *Feed) String() string {
	return fmt.Sprintf("Feed{url: %q, title: %q, displayTitle: %q, articles: %d, tags: %v, hidden: %t, query: %t}",
		f.url, f.title, f.displayTitle, len(f.articles), f.tags, f.hidden, f.isQuery)
}
