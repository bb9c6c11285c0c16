// Package urls reads a newsboat urls file into feed declarations.
package urls

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/filter"
	"github.com/jdholdren/liveboat/internal/liveboat"
	"github.com/jdholdren/liveboat/logger"
)

const (
	queryPrefix  = "query:"
	execPrefix   = "exec:"
	filterPrefix = "filter:"
)

// Subscriptions is everything declared in a urls file, in file order.
type Subscriptions struct {
	URLFeeds   []liveboat.URLFeed
	QueryFeeds []liveboat.QueryFeed
}

// URLs lists the url of every url feed.
func (s Subscriptions) URLs() []string {
	ret := make([]string, 0, len(s.URLFeeds))
	for _, f := range s.URLFeeds {
		ret = append(ret, f.URL)
	}
	return ret
}

// ReadFile opens and parses the urls file at path.
func ReadFile(ctx context.Context, path string) (Subscriptions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Subscriptions{}, lberrs.E(lberrs.KindSetup, fmt.Errorf("error opening urls file: %w", err))
	}
	defer f.Close()

	return Read(ctx, f)
}

// Read parses a urls file. A malformed query line fails the whole read.
func Read(ctx context.Context, r io.Reader) (Subscriptions, error) {
	var (
		subs    Subscriptions
		lineNo  int
		scanner = bufio.NewScanner(r)
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := lineNo
		lineNo++

		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}

		switch first := tokens[0]; {
		case strings.HasPrefix(first, queryPrefix):
			q, err := parseQuery(first, idx)
			if err != nil {
				return Subscriptions{}, lberrs.E(lberrs.KindSubscription, fmt.Errorf("line %q: %w", line, err))
			}
			subs.QueryFeeds = append(subs.QueryFeeds, q)
		case strings.HasPrefix(first, execPrefix), strings.HasPrefix(first, filterPrefix):
			slog.DebugContext(ctx, "skipping special url", "url", first)
		default:
			subs.URLFeeds = append(subs.URLFeeds, parseURLFeed(tokens, idx))
		}
	}
	if err := scanner.Err(); err != nil {
		return Subscriptions{}, lberrs.E(lberrs.KindSetup, fmt.Errorf("error reading urls file: %w", err))
	}

	slog.InfoContext(logger.Ctx(ctx, slog.Int("url_feeds", len(subs.URLFeeds)), slog.Int("query_feeds", len(subs.QueryFeeds))),
		"read subscriptions")
	return subs, nil
}

func parseURLFeed(tokens []string, idx int) liveboat.URLFeed {
	feed := liveboat.URLFeed{
		URL:        tokens[0],
		OrderIndex: idx,
	}
	for _, tok := range tokens[1:] {
		switch {
		case strings.HasPrefix(tok, "~"):
			title := tok[1:]
			feed.TitleOverride = &title
		case tok == "!":
			feed.Hidden = true
		default:
			feed.Tags = append(feed.Tags, tok)
		}
	}
	return feed
}

// parseQuery splits `query:<title>:<filter>`. The filter may itself contain colons.
func parseQuery(tok string, idx int) (liveboat.QueryFeed, error) {
	parts := strings.SplitN(tok, ":", 3)
	if len(parts) < 3 {
		return liveboat.QueryFeed{}, fmt.Errorf("query feed needs a title and a filter")
	}

	expr, err := filter.Parse(parts[2])
	if err != nil {
		return liveboat.QueryFeed{}, fmt.Errorf("error parsing query filter: %w", err)
	}

	return liveboat.QueryFeed{
		Title:      parts[1],
		OrderIndex: idx,
		Filter:     predicate(expr),
	}, nil
}

func predicate(expr filter.Expr) liveboat.Predicate {
	return func(attrs liveboat.Attributes) (bool, error) {
		return expr.Matches(attrs)
	}
}

// tokenize splits a line on whitespace. Double quotes group words and a
// backslash escapes the next character.
func tokenize(line string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	flush := func() {
		if started {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		started = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(unescape(line[i]))
			started = true
		case c == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (c == ' ' || c == '\t' || c == '\r' || c == '\n'):
			flush()
		default:
			cur.WriteByte(c)
			started = true
		}
	}
	flush()
	return tokens
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	}
	return c
}
