package liveboat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestFeedIDIsDeterministic(t *testing.T) {
	a := NewFeed("http://feed1.com", "Feed1", "")
	b := NewFeed("http://feed1.com", "Other title", "")
	c := NewFeed("http://feed2.com", "Feed1", "")

	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), c.ID())
	assert.NotEmpty(t, a.ID())

	q := NewQueryFeed(QueryFeed{Title: "News"})
	assert.Equal(t, FeedID("News"), q.ID())
	assert.True(t, q.IsQuery())
}

func TestApplyDeclaration(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "http://feed1.com/home")
	f.Apply(URLFeed{
		URL:           "http://feed1.com",
		Tags:          []string{"dev", "news"},
		Hidden:        true,
		TitleOverride: strPtr("Some feed"),
		OrderIndex:    4,
	})

	assert.Equal(t, "Feed1", f.Title())
	assert.Equal(t, "Some feed", f.DisplayTitle())
	assert.Equal(t, []string{"dev", "news"}, f.Tags())
	assert.True(t, f.Hidden())
	assert.Equal(t, 4, f.OrderIndex())

	g := NewFeed("http://feed2.com", "Feed2", "")
	g.Apply(URLFeed{URL: "http://feed2.com"})
	assert.Equal(t, "Feed2", g.DisplayTitle())
}

func TestIsEmpty(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "")
	assert.True(t, f.IsEmpty())

	f.AddArticle(Article{GUID: 1})
	assert.False(t, f.IsEmpty())
	assert.Equal(t, 1, f.Len())
}

func TestSortArticlesNewestFirst(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "")
	f.AddArticle(Article{GUID: 1, PublishedAt: 1733000000})
	f.AddArticle(Article{GUID: 2, PublishedAt: 1733200000})
	f.AddArticle(Article{GUID: 3, PublishedAt: 1733100000})
	assert.False(t, f.IsSorted())

	f.SortArticles()

	require.True(t, f.IsSorted())
	var guids []int64
	for _, a := range f.Articles() {
		guids = append(guids, a.GUID)
	}
	assert.Equal(t, []int64{2, 3, 1}, guids)

	// Adding invalidates the order.
	f.AddArticle(Article{GUID: 4})
	assert.False(t, f.IsSorted())
}

func TestLatestArticleAge(t *testing.T) {
	t.Run("unsorted feed panics", func(t *testing.T) {
		f := NewFeed("http://feed1.com", "Feed1", "")
		f.AddArticle(Article{GUID: 1, PublishedAt: time.Now().Unix()})

		assert.PanicsWithError(t, `latest_article_age on "http://feed1.com": feed articles are not sorted`, func() {
			f.AttributeValue("latest_article_age")
		})
	})

	t.Run("empty feed yields empty string", func(t *testing.T) {
		f := NewFeed("http://feed1.com", "Feed1", "")
		v, ok := f.AttributeValue("latest_article_age")
		assert.True(t, ok)
		assert.Equal(t, "", v)
	})

	t.Run("sorted feed yields newest age", func(t *testing.T) {
		f := NewFeed("http://feed1.com", "Feed1", "")
		f.AddArticle(Article{GUID: 1, PublishedAt: time.Now().Add(-10 * 24 * time.Hour).Unix()})
		f.AddArticle(Article{GUID: 2, PublishedAt: time.Now().Add(-3*24*time.Hour - time.Hour).Unix()})
		f.SortArticles()

		v, ok := f.AttributeValue("latest_article_age")
		assert.True(t, ok)
		assert.Equal(t, "3", v)
	})
}

func TestFeedAttributes(t *testing.T) {
	f := NewFeed("http://feed1.com/rss", "Feed1", "http://feed1.com")
	f.Apply(URLFeed{URL: "http://feed1.com/rss", Tags: []string{"dev", "news"}, TitleOverride: strPtr("Mine")})
	f.AddArticle(Article{GUID: 1, Unread: true})
	f.AddArticle(Article{GUID: 2, Unread: false})
	f.AddArticle(Article{GUID: 3, Unread: true})

	tests := []struct {
		name string
		want string
	}{
		{"feedtitle", "Feed1"},
		{"rssurl", "http://feed1.com/rss"},
		{"feedlink", "http://feed1.com"},
		{"total_count", "3"},
		{"tags", "dev news"},
		{"unread_count", "2"},
		{"description", ""},
		{"feeddate", ""},
		{"feedindex", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.AttributeValue(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := f.AttributeValue("nonsense")
	assert.False(t, ok)
}

func makeFeed(t *testing.T, now time.Time, ages []time.Duration) *Feed {
	t.Helper()

	f := NewFeed("http://feed1.com", "Feed1", "")
	for i, age := range ages {
		f.AddArticle(Article{GUID: int64(i + 1), PublishedAt: now.Add(-age).Unix()})
	}
	f.SortArticles()
	return f
}

func TestLiveWindow(t *testing.T) {
	now := time.Now()
	const day = 24 * time.Hour

	spread := func(recent, old int) []time.Duration {
		var ages []time.Duration
		for i := 0; i < recent; i++ {
			ages = append(ages, time.Duration(i)*time.Minute)
		}
		for i := 0; i < old; i++ {
			ages = append(ages, 5*day+time.Duration(i)*time.Hour)
		}
		return ages
	}

	tests := []struct {
		name string
		ages []time.Duration
		want int
	}{
		{name: "under the bound keeps everything", ages: spread(10, 30), want: 40},
		{name: "exactly the bound keeps everything", ages: spread(0, 50), want: 50},
		{name: "few recent articles truncates to the bound", ages: spread(20, 40), want: 50},
		{name: "many recent articles exceed the bound", ages: spread(55, 5), want: 55},
		{name: "two day old articles still count as recent", ages: append(spread(0, 8), func() []time.Duration {
			var d []time.Duration
			for i := 0; i < 52; i++ {
				d = append(d, 2*day+time.Duration(i)*time.Second)
			}
			return d
		}()...), want: 52},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := makeFeed(t, now, tt.ages)
			live := f.LiveWindowAt(now)
			assert.Len(t, live, tt.want)
			assert.Equal(t, len(tt.ages), f.Len(), "archive must stay complete")
		})
	}
}

func TestLiveWindowAliasesArticles(t *testing.T) {
	now := time.Now()
	f := makeFeed(t, now, []time.Duration{time.Hour, 2 * time.Hour})

	live := f.LiveWindowAt(now)
	live[0].Content = "enriched"

	assert.Equal(t, "enriched", f.Articles()[0].Content)
}

func TestLiveWindowRequiresSort(t *testing.T) {
	f := NewFeed("http://feed1.com", "Feed1", "")
	f.AddArticle(Article{GUID: 1})

	assert.Panics(t, func() { f.LiveWindow() })
}
