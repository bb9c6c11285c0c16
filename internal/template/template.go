// Package template renders the page index from <template_dir>/index.tpl.
//
// The template is plain text with {{tag}} placeholders. {{title}} and
// {{site_path}} are HTML escaped strings, {{build_time}} is epoch seconds and
// {{feeds}}, {{query_feeds}} and {{options}} are JSON.
package template

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"

	"github.com/valyala/fasttemplate"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/output"
)

const (
	IndexTemplate = "index.tpl"
	IncludeDir    = "include"
)

// Context is everything the index template can reference.
type Context struct {
	Title      string
	SitePath   string
	BuildTime  int64
	Feeds      []output.FeedListEntry
	QueryFeeds []output.FeedListEntry
	Options    any
}

// Render substitutes c into the index template found in dir.
func Render(dir string, c Context) ([]byte, error) {
	path := filepath.Join(dir, IndexTemplate)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, lberrs.E(lberrs.KindSetup, fmt.Errorf("error reading template: %w", err))
	}

	tpl, err := fasttemplate.NewTemplate(string(src), "{{", "}}")
	if err != nil {
		return nil, lberrs.E(lberrs.KindSetup, fmt.Errorf("error parsing template %s: %w", path, err))
	}

	values := map[string]any{
		"title":      html.EscapeString(c.Title),
		"site_path":  html.EscapeString(c.SitePath),
		"build_time": strconv.FormatInt(c.BuildTime, 10),
	}
	for tag, v := range map[string]any{
		"feeds":       nonNil(c.Feeds),
		"query_feeds": nonNil(c.QueryFeeds),
		"options":     c.Options,
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, lberrs.E(lberrs.KindOutput, fmt.Errorf("error encoding %s: %w", tag, err))
		}
		values[tag] = data
	}

	return []byte(tpl.ExecuteString(values)), nil
}

func nonNil(entries []output.FeedListEntry) []output.FeedListEntry {
	if entries == nil {
		return []output.FeedListEntry{}
	}
	return entries
}
