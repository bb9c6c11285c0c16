// Package output writes the build artifacts: per-feed JSON, the aggregated
// RSS channel, one RSS channel per query feed, and an OPML subscription list.
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
)

const (
	FeedsDir    = "feeds"
	ChannelsDir = "channels"
	RSSFile     = "rss.xml"
	OPMLFile    = "opml.xml"
	FeedList    = "feeds.json"
)

// Options controls how artifacts are rendered.
type Options struct {
	// Title of the aggregated channel and the OPML document.
	Title string
	// SiteURL is where the build is served from. It must end with a slash.
	SiteURL string
	// IncludeContent puts article bodies into RSS items.
	IncludeContent bool
	// Pretty indents JSON output.
	Pretty bool
	// Now is the generation time recorded in channels and OPML.
	Now time.Time
}

// Writer emits every artifact below dir.
type Writer struct {
	dir  string
	opts Options
}

func NewWriter(dir string, opts Options) Writer {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return Writer{dir: dir, opts: opts}
}

// WriteAll writes every artifact. feeds are url feeds and queries are query
// feeds, each in subscription order with articles already sorted.
func (w Writer) WriteAll(ctx context.Context, feeds, queries []*liveboat.Feed) error {
	if err := w.WriteJSON(ctx, feeds, queries); err != nil {
		return err
	}
	if err := w.WriteRSS(ctx, feeds); err != nil {
		return err
	}
	if err := w.WriteChannels(ctx, queries); err != nil {
		return err
	}
	return w.WriteOPML(ctx, feeds, queries)
}

// visible drops hidden feeds.
func visible(feeds []*liveboat.Feed) []*liveboat.Feed {
	return lo.Filter(feeds, func(f *liveboat.Feed, _ int) bool {
		return !f.Hidden()
	})
}

func (w Writer) write(ctx context.Context, rel string, data []byte) error {
	path := filepath.Join(w.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error creating directory for %s: %w", rel, err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lberrs.E(lberrs.KindOutput, fmt.Errorf("error writing %s: %w", rel, err))
	}

	slog.DebugContext(ctx, "wrote artifact", "path", path, "bytes", len(data))
	return nil
}
