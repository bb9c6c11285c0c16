package liveboat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticleAge(t *testing.T) {
	now := time.Date(2024, 12, 12, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		want      int
	}{
		{name: "just published", published: now, want: 0},
		{name: "future date clamps to zero", published: now.Add(72 * time.Hour), want: 0},
		{name: "under a day", published: now.Add(-23 * time.Hour), want: 0},
		{name: "exactly one day", published: now.Add(-24 * time.Hour), want: 1},
		{name: "several days", published: now.Add(-(5*24 + 3) * time.Hour), want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{PublishedAt: tt.published.Unix()}
			assert.Equal(t, tt.want, a.AgeAt(now))
		})
	}
}

func TestArticleAgeNeverNegative(t *testing.T) {
	for _, ts := range []int64{0, 970000000, 1733974974, time.Now().Add(1000 * time.Hour).Unix()} {
		assert.GreaterOrEqual(t, Article{PublishedAt: ts}.Age(), 0)
	}
}

func TestArticleAttributes(t *testing.T) {
	a := Article{
		Title:        "Item",
		URL:          "http://feed1.com/1",
		Author:       "kw",
		PublishedAt:  1733974974,
		Unread:       true,
		Content:      "<p>body</p>",
		GUID:         42,
		EnclosureURL: strPtr("http://feed1.com/1.mp3"),
	}

	tests := []struct {
		name string
		want string
	}{
		{"title", "Item"},
		{"link", "http://feed1.com/1"},
		{"author", "kw"},
		{"unread", "yes"},
		{"date", "1733974974"},
		{"content", "<p>body</p>"},
		{"guid", "42"},
		{"enclosure_url", "http://feed1.com/1.mp3"},
		{"enclosure_type", ""},
		{"flags", ""},
		{"articleindex", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := a.AttributeValue(tt.name)
			assert.True(t, ok, "optional attributes must be present even when unset")
			assert.Equal(t, tt.want, got)
		})
	}

	a.Unread = false
	v, _ := a.AttributeValue("unread")
	assert.Equal(t, "no", v)
}

func TestArticleFallsBackToOwner(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "")
	f.Apply(URLFeed{URL: "http://feed1.com", Tags: []string{"news"}})
	f.AddArticle(Article{GUID: 1, Title: "Item"})

	a := f.Articles()[0]
	assert.Same(t, f, a.Owner())

	tags, ok := a.AttributeValue("tags")
	assert.True(t, ok)
	assert.Equal(t, "news", tags)

	// Article attributes win over feed attributes of the same name.
	title, _ := a.AttributeValue("title")
	assert.Equal(t, "Item", title)

	_, ok = a.AttributeValue("no_such_attribute")
	assert.False(t, ok, "unknown on both article and feed must be absent")
}

func TestOrphanArticleHasNoFallback(t *testing.T) {
	_, ok := Article{}.AttributeValue("feedtitle")
	assert.False(t, ok)
}

func TestQueryFeedCopiesKeepOriginalOwner(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "")
	f.AddArticle(Article{GUID: 1, Title: "Item"})

	q := NewQueryFeed(QueryFeed{Title: "All"})
	q.AddArticle(f.Articles()[0])

	q.Articles()[0].Title = "changed"
	assert.Equal(t, "Item", f.Articles()[0].Title, "query feed must hold its own copy")
	assert.Same(t, f, q.Articles()[0].Owner())
}

func TestAttributesAtUseTheGivenClock(t *testing.T) {
	now := time.Unix(1733300000, 0)
	f := NewFeed("http://feed1.com", "Feed1", "")
	f.AddArticle(Article{GUID: 1, PublishedAt: now.Add(-3*24*time.Hour - time.Hour).Unix()})
	f.SortArticles()

	attrs := f.Articles()[0].AttributesAt(now)

	age, ok := attrs.AttributeValue("age")
	assert.True(t, ok)
	assert.Equal(t, "3", age)

	latest, ok := attrs.AttributeValue("latest_article_age")
	assert.True(t, ok)
	assert.Equal(t, "3", latest)

	// A day later the same article is a day older.
	age, _ = f.Articles()[0].AttributesAt(now.Add(24*time.Hour)).AttributeValue("age")
	assert.Equal(t, "4", age)

	title, ok := attrs.AttributeValue("feedtitle")
	assert.True(t, ok)
	assert.Equal(t, "Feed1", title)
}
