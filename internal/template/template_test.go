package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/output"
)

func TestRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexTemplate), []byte(
		`<title>{{title}}</title><base href="{{site_path}}">`+
			`<script>const built = {{build_time}}; const feeds = {{feeds}}; const queries = {{query_feeds}}; const opts = {{options}};</script>{{unknown}}`,
	), 0o600))

	out, err := Render(dir, Context{
		Title:     "Feeds & things",
		SitePath:  "/liveboat/",
		BuildTime: 1733300000,
		Feeds:     []output.FeedListEntry{{ID: "abc", Title: "Feed1", Tags: []string{"dev"}}},
		Options:   map[string]bool{"showReadArticles": true},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`<title>Feeds &amp; things</title><base href="/liveboat/">`+
			`<script>const built = 1733300000; `+
			`const feeds = [{"id":"abc","title":"Feed1","displayTitle":"","url":"","feedLink":"","hidden":false,"isQuery":false,"tags":["dev"],"itemCount":0}]; `+
			`const queries = []; const opts = {"showReadArticles":true};</script>`,
		string(out))
}

func TestRenderMissingTemplate(t *testing.T) {
	_, err := Render(t.TempDir(), Context{})
	assert.Equal(t, lberrs.KindSetup, lberrs.KindOf(err))
}
