package urls

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
)

const urlsFile = `# my feeds
http://feed1.com/rss dev news "~Feed One"

http://feed2.com/rss "!" misc
http://feed3.com/rss
"query:Dev news:tags # \"news\" and unread = \"yes\""
"exec:~/bin/script.sh"
"filter:~/bin/f.sh:http://feed4.com"
`

func TestRead(t *testing.T) {
	subs, err := Read(context.Background(), strings.NewReader(urlsFile))
	require.NoError(t, err)

	require.Len(t, subs.URLFeeds, 3)
	assert.Equal(t, []string{"http://feed1.com/rss", "http://feed2.com/rss", "http://feed3.com/rss"}, subs.URLs())

	first := subs.URLFeeds[0]
	assert.Equal(t, []string{"dev", "news"}, first.Tags)
	require.NotNil(t, first.TitleOverride)
	assert.Equal(t, "Feed One", *first.TitleOverride)
	assert.False(t, first.Hidden)
	assert.Equal(t, 0, first.OrderIndex)

	second := subs.URLFeeds[1]
	assert.True(t, second.Hidden)
	assert.Equal(t, []string{"misc"}, second.Tags)
	assert.Nil(t, second.TitleOverride)
	assert.Equal(t, 1, second.OrderIndex)

	assert.Empty(t, subs.URLFeeds[2].Tags)
	assert.Equal(t, 2, subs.URLFeeds[2].OrderIndex)

	require.Len(t, subs.QueryFeeds, 1)
	q := subs.QueryFeeds[0]
	assert.Equal(t, "Dev news", q.Title)
	assert.Equal(t, 3, q.OrderIndex)
}

type attrs map[string]string

func (a attrs) AttributeValue(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func TestQueryPredicate(t *testing.T) {
	subs, err := Read(context.Background(), strings.NewReader(`"query:News:tags # \"news\""`))
	require.NoError(t, err)
	require.Len(t, subs.QueryFeeds, 1)

	pred := subs.QueryFeeds[0].Filter

	ok, err := pred(attrs{"tags": "dev news"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pred(attrs{"tags": "dev"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQueryAgainstFeeds(t *testing.T) {
	subs, err := Read(context.Background(), strings.NewReader(`"query:News:tags # \"news\""`))
	require.NoError(t, err)
	pred := subs.QueryFeeds[0].Filter

	tagged := liveboat.NewFeed("http://feed1.com", "Feed1", "")
	tagged.Apply(liveboat.URLFeed{URL: "http://feed1.com", Tags: []string{"news"}})
	tagged.AddArticle(liveboat.Article{GUID: 1})

	untagged := liveboat.NewFeed("http://feed2.com", "Feed2", "")
	untagged.Apply(liveboat.URLFeed{URL: "http://feed2.com", Tags: []string{"dev"}})
	untagged.AddArticle(liveboat.Article{GUID: 2})

	ok, err := pred(tagged.Articles()[0])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pred(untagged.Articles()[0])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadInvalidQueries(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "missing filter", line: `"query:News"`},
		{name: "bad filter", line: `"query:News:tags # "`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), strings.NewReader("http://feed1.com\n"+tt.line))
			require.Error(t, err)
			assert.Equal(t, lberrs.KindSubscription, lberrs.KindOf(err))
		})
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls")
	require.NoError(t, os.WriteFile(path, []byte(urlsFile), 0o600))

	subs, err := ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, subs.URLFeeds, 3)

	_, err = ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, lberrs.KindSetup, lberrs.KindOf(err))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{line: `a b  c`, want: []string{"a", "b", "c"}},
		{line: `a "b c" d`, want: []string{"a", "b c", "d"}},
		{line: `"~Title with \"quotes\""`, want: []string{`~Title with "quotes"`}},
		{line: `a ""`, want: []string{"a", ""}},
		{line: "a\tb", want: []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenize(tt.line))
		})
	}
}
