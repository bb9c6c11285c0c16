// Package build runs a single page build: read the cache, attach articles
// to feeds, enrich them, evaluate query feeds and publish the artifacts.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/jdholdren/liveboat/internal/config"
	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
	"github.com/jdholdren/liveboat/internal/output"
	"github.com/jdholdren/liveboat/internal/template"
	"github.com/jdholdren/liveboat/internal/urls"
	"github.com/jdholdren/liveboat/logger"
)

// Stage is a step of a build. A build moves through the stages in order and
// stops at the first fatal error; Cleanup always runs.
type Stage string

const (
	StageInit    Stage = "init"
	StageFetch   Stage = "fetch"
	StageMerge   Stage = "merge"
	StageEnrich  Stage = "enrich"
	StageMatch   Stage = "match"
	StageEmit    Stage = "emit"
	StagePublish Stage = "publish"
	StageCleanup Stage = "cleanup"
)

// Store is the newsboat cache.
type Store interface {
	Feeds(ctx context.Context, urls []string) ([]*liveboat.Feed, error)
	Articles(ctx context.Context, days int) ([]liveboat.Article, error)
}

// Enricher rewrites an article in place. Only errors for which
// [lberrs.IsFatal] holds stop the build.
type Enricher interface {
	Enrich(ctx context.Context, a *liveboat.Article) error
}

// Builder holds everything one build needs. It is used once.
type Builder struct {
	opts     config.Options
	subs     urls.Subscriptions
	store    Store
	enricher Enricher
	// Progress lines for the user.
	out io.Writer
	now time.Time

	stage   Stage
	staging string
}

func New(opts config.Options, subs urls.Subscriptions, store Store, enricher Enricher, out io.Writer) *Builder {
	return &Builder{
		opts:     opts,
		subs:     subs,
		store:    store,
		enricher: enricher,
		out:      out,
		now:      time.Now(),
	}
}

// Result is what a build produced.
type Result struct {
	Feeds      []*liveboat.Feed
	QueryFeeds []*liveboat.Feed
	BuildDir   string
}

// Stage is the stage the build is in, or last ran.
func (b *Builder) Stage() Stage { return b.stage }

func (b *Builder) enter(ctx context.Context, s Stage) {
	b.stage = s
	slog.InfoContext(ctx, "build stage", "stage", string(s))
}

// Run executes the build.
func (b *Builder) Run(ctx context.Context) (Result, error) {
	ctx = logger.Ctx(ctx, slog.String("build_dir", b.opts.BuildDir))

	b.enter(ctx, StageInit)
	if err := b.createStaging(); err != nil {
		return Result{}, err
	}
	defer func() {
		b.enter(ctx, StageCleanup)
		b.cleanup(ctx)
	}()

	b.enter(ctx, StageFetch)
	feeds, articles, err := b.fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	b.enter(ctx, StageMerge)
	feeds = b.merge(ctx, feeds, articles)

	b.enter(ctx, StageEnrich)
	if err := b.enrich(ctx, feeds); err != nil {
		return Result{}, err
	}

	b.enter(ctx, StageMatch)
	queries := b.match(ctx, feeds)

	b.enter(ctx, StageEmit)
	if err := b.emit(ctx, feeds, queries); err != nil {
		return Result{}, err
	}

	// Last point where the previous build is still intact.
	if err := interrupted(ctx); err != nil {
		return Result{}, err
	}

	b.enter(ctx, StagePublish)
	if err := b.publish(ctx); err != nil {
		return Result{}, err
	}

	return Result{Feeds: feeds, QueryFeeds: queries, BuildDir: b.opts.BuildDir}, nil
}

func (b *Builder) fetch(ctx context.Context) ([]*liveboat.Feed, []liveboat.Article, error) {
	articles, err := b.store.Articles(ctx, b.opts.TimeThreshold)
	if err != nil {
		return nil, nil, lberrs.E(lberrs.KindStore, err)
	}
	feeds, err := b.store.Feeds(ctx, b.subs.URLs())
	if err != nil {
		return nil, nil, lberrs.E(lberrs.KindStore, err)
	}

	slog.InfoContext(ctx, "read cache", "feeds", len(feeds), "articles", len(articles))
	return feeds, articles, nil
}

// merge applies the subscription lines to the cached feeds, attaches
// articles and sorts everything. Feeds without a subscription line are dropped.
func (b *Builder) merge(ctx context.Context, cached []*liveboat.Feed, articles []liveboat.Article) []*liveboat.Feed {
	decls := make(map[string]liveboat.URLFeed, len(b.subs.URLFeeds))
	for _, d := range b.subs.URLFeeds {
		if _, dup := decls[d.URL]; dup {
			slog.WarnContext(ctx, "duplicate url in urls file, keeping the first", "url", d.URL)
			continue
		}
		decls[d.URL] = d
	}

	var feeds []*liveboat.Feed
	for _, f := range cached {
		decl, ok := decls[f.URL()]
		if !ok {
			slog.DebugContext(ctx, "dropping unsubscribed feed", "url", f.URL())
			continue
		}
		f.Apply(decl)
		feeds = append(feeds, f)
	}
	slices.SortStableFunc(feeds, func(a, b *liveboat.Feed) int { return a.OrderIndex() - b.OrderIndex() })

	byURL := lo.KeyBy(feeds, func(f *liveboat.Feed) string { return f.URL() })
	for _, a := range articles {
		f, ok := byURL[a.FeedURL]
		if !ok {
			continue
		}
		if !b.opts.ShowReadArticles && !a.Unread {
			continue
		}
		f.AddArticle(a)
	}

	for _, f := range feeds {
		f.SortArticles()
	}
	return feeds
}

// enrich runs the enricher over the live window of every feed. Articles
// outside the window are left as read from the cache. A cancelled context
// stops the build: articles fetched after it would all come back empty.
func (b *Builder) enrich(ctx context.Context, feeds []*liveboat.Feed) error {
	for _, f := range feeds {
		live := f.LiveWindowAt(b.now)
		fmt.Fprintf(b.out, "Processing content for feed: %s, total items: %d\n", f.Title(), len(live))

		fctx := logger.Ctx(ctx, slog.String("feed_url", f.URL()))
		for i := range live {
			err := b.enricher.Enrich(fctx, &live[i])
			if cerr := interrupted(ctx); cerr != nil {
				return cerr
			}
			if err == nil {
				continue
			}
			if lberrs.IsFatal(err) {
				return err
			}
			slog.InfoContext(fctx, "error processing content", "article_url", live[i].URL, "error", err)
		}
	}
	return nil
}

func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return lberrs.E(lberrs.KindCanceled, fmt.Errorf("build interrupted: %w", err))
	}
	return nil
}

// match builds one query feed per declaration from every article of every
// url feed, including articles outside the live window.
func (b *Builder) match(ctx context.Context, feeds []*liveboat.Feed) []*liveboat.Feed {
	queries := make([]*liveboat.Feed, 0, len(b.subs.QueryFeeds))
	for _, decl := range b.subs.QueryFeeds {
		q := liveboat.NewQueryFeed(decl)
		qctx := logger.Ctx(ctx, slog.String("query", decl.Title))

		for _, f := range feeds {
			for _, a := range f.Articles() {
				ok, err := decl.Filter(a.AttributesAt(b.now))
				if err != nil {
					slog.WarnContext(qctx, "matcher error", "guid", a.GUID, "error", err)
					continue
				}
				if ok {
					q.AddArticle(a)
				}
			}
		}

		q.SortArticles()
		slog.DebugContext(qctx, "matched query feed", "articles", q.Len())
		queries = append(queries, q)
	}
	return queries
}

func (b *Builder) emit(ctx context.Context, feeds, queries []*liveboat.Feed) error {
	w := output.NewWriter(b.staging, output.Options{
		Title:          b.opts.Title,
		SiteURL:        b.opts.SiteURL,
		IncludeContent: b.opts.IncludeArticleContentInRSSFeeds,
		Pretty:         b.opts.Debug,
		Now:            b.now,
	})
	if err := w.WriteAll(ctx, feeds, queries); err != nil {
		return err
	}

	if err := b.writeStaging(buildTimeFile, []byte(fmt.Sprint(b.now.Unix()))); err != nil {
		return err
	}

	entry := func(f *liveboat.Feed, _ int) output.FeedListEntry {
		return output.NewFeedListEntry(f, len(f.LiveWindowAt(b.now)))
	}
	index, err := template.Render(b.opts.TemplateDir, template.Context{
		Title:      b.opts.Title,
		SitePath:   b.opts.SitePath,
		BuildTime:  b.now.Unix(),
		Feeds:      lo.Map(output.Listed(feeds, nil), entry),
		QueryFeeds: lo.Map(queries, entry),
		Options:    b.opts,
	})
	if err != nil {
		return err
	}
	return b.writeStaging(indexFile, index)
}
