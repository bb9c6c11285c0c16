package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
)

type feedRow struct {
	RSSURL string `db:"rssurl"`
	Title  string `db:"title"`
	URL    string `db:"url"`
}

// Feeds returns the cached metadata for the given feed urls. Urls the cache
// has never seen are left out.
func (r Repo) Feeds(ctx context.Context, urls []string) ([]*liveboat.Feed, error) {
	if len(urls) == 0 {
		return []*liveboat.Feed{}, nil
	}

	query, args, err := sq.Select("rssurl", "title", "url").From("rss_feed").Where(sq.Eq{"rssurl": urls}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	var rows []feedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, lberrs.E(lberrs.KindStore, fmt.Errorf("error fetching feeds: %w", err))
	}

	feeds := make([]*liveboat.Feed, 0, len(rows))
	for _, row := range rows {
		feeds = append(feeds, liveboat.NewFeed(row.RSSURL, row.Title, row.URL))
	}
	return feeds, nil
}

// Articles returns every non-deleted article published within the last
// days days, across all feeds.
func (r Repo) Articles(ctx context.Context, days int) ([]liveboat.Article, error) {
	cutoff := r.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()

	query, args, err := sq.Select(
		"feed.rssurl AS feed_url",
		"items.title AS title",
		"items.url AS url",
		"items.author AS author",
		"items.pubDate AS pub_date",
		"items.unread AS unread",
		"items.content AS content",
		"items.id AS guid",
		"items.enclosure_url AS enclosure_url",
		"items.enclosure_type AS enclosure_type",
		"items.flags AS flags",
	).
		From("rss_item AS items").
		Join("rss_feed AS feed ON feed.rssurl = items.feedurl").
		Where(sq.Eq{"items.deleted": 0}).
		Where(sq.GtOrEq{"items.pubDate": cutoff}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	var articles []liveboat.Article
	if err := r.db.SelectContext(ctx, &articles, query, args...); err != nil {
		return nil, lberrs.E(lberrs.KindStore, fmt.Errorf("error fetching articles: %w", err))
	}
	return articles, nil
}
