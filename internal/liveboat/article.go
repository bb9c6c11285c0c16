package liveboat

import (
	"strconv"
	"time"
)

// Article is a single entry from the newsboat cache.
//
// Articles are values: a query feed receives its own copy of every
// article it matches. The owner pointer survives the copy and still
// refers to the url feed the article was read from.
type Article struct {
	FeedURL       string  `db:"feed_url"`
	Title         string  `db:"title"`
	URL           string  `db:"url"`
	Author        string  `db:"author"`
	PublishedAt   int64   `db:"pub_date"`
	Unread        bool    `db:"unread"`
	Content       string  `db:"content"`
	GUID          int64   `db:"guid"`
	EnclosureURL  *string `db:"enclosure_url"`
	EnclosureMime *string `db:"enclosure_type"`
	Flags         *string `db:"flags"`

	ExtractedText *string `db:"-"`
	ContentLength int     `db:"-"`
	CommentsURL   *string `db:"-"`

	// Read-only back reference used for attribute fallback and RSS
	// source/category metadata. Never mutated through.
	owner *Feed
}

// Owner is the feed this article was attached to, or nil.
func (a Article) Owner() *Feed {
	return a.owner
}

// Published returns the publish time in UTC.
func (a Article) Published() time.Time {
	return time.Unix(a.PublishedAt, 0).UTC()
}

// Age is the number of whole days since the article was published.
func (a Article) Age() int {
	return a.AgeAt(time.Now())
}

// AgeAt is [Article.Age] measured from now. Articles dated in the future have age 0.
func (a Article) AgeAt(now time.Time) int {
	delta := now.Sub(a.Published())
	if delta <= 0 {
		return 0
	}
	return int(delta / (24 * time.Hour))
}

// AttributeValue resolves the article attributes used by filter
// expressions, falling back to the owning feed for anything else.
func (a Article) AttributeValue(name string) (string, bool) {
	return a.attributeAt(name, time.Now())
}

// AttributesAt is the article's attribute view with every age measured
// from now, so one build resolves ages against a single clock.
func (a Article) AttributesAt(now time.Time) Attributes {
	return articleAt{article: a, now: now}
}

type articleAt struct {
	article Article
	now     time.Time
}

func (a articleAt) AttributeValue(name string) (string, bool) {
	return a.article.attributeAt(name, a.now)
}

func (a Article) attributeAt(name string, now time.Time) (string, bool) {
	switch name {
	case "title":
		return a.Title, true
	case "link":
		return a.URL, true
	case "author":
		return a.Author, true
	case "unread":
		if a.Unread {
			return "yes", true
		}
		return "no", true
	case "date":
		return strconv.FormatInt(a.PublishedAt, 10), true
	case "age":
		return strconv.Itoa(a.AgeAt(now)), true
	case "content":
		return a.Content, true
	case "guid":
		return strconv.FormatInt(a.GUID, 10), true
	case "enclosure_url":
		return deref(a.EnclosureURL), true
	case "enclosure_type":
		return deref(a.EnclosureMime), true
	case "flags":
		return deref(a.Flags), true
	case "articleindex":
		// Assigned by newsboat at display time, not available here.
		return "", true
	}

	if a.owner == nil {
		return "", false
	}
	return a.owner.attributeAt(name, now)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
