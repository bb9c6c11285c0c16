// Package content replaces article content with the readable text of the
// page it links to.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sethvargo/go-retry"
	"github.com/sym01/htmlsanitizer"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
	"github.com/jdholdren/liveboat/internal/liveboat"
	"github.com/jdholdren/liveboat/logger"
)

const (
	userAgent   = "Liveboat/1.0"
	maxBodySize = 5 * 1024 * 1024
	cacheSize   = 512
)

var errNoContent = errors.New("no readable content")

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options toggles the link rewriting rules.
type Options struct {
	ScrapeRedditLinks bool
	ScrapeHNLinks     bool
	// Retries is how many times a failed fetch is retried.
	Retries uint64
	// RetryBase is the first backoff delay.
	RetryBase time.Duration
}

// Extracted is the readable version of a page.
type Extracted struct {
	HTML   string
	Text   string
	Length int
}

// Enricher runs the readability pipeline over articles.
type Enricher struct {
	client HTTPClient
	opts   Options
	// Pages already fetched this run, by url.
	cache *lru.Cache[string, Extracted]
}

func NewEnricher(client HTTPClient, opts Options) *Enricher {
	cache, _ := lru.New[string, Extracted](cacheSize)
	if opts.RetryBase <= 0 {
		opts.RetryBase = 500 * time.Millisecond
	}
	return &Enricher{
		client: client,
		opts:   opts,
		cache:  cache,
	}
}

// Enrich replaces a's content with its readable text. On failure the content
// is cleared and a [lberrs.KindEnrichment] error is returned; the article
// stays usable either way.
func (e *Enricher) Enrich(ctx context.Context, a *liveboat.Article) error {
	ctx = logger.Ctx(ctx, slog.String("article_url", a.URL), slog.Int64("guid", a.GUID))

	plan, err := e.PlanFor(*a)
	if err != nil {
		a.Content = ""
		return lberrs.E(lberrs.KindEnrichment, fmt.Errorf("error parsing article url: %w", err))
	}

	var ext Extracted
	if plan.Scrape {
		slog.DebugContext(ctx, "scraping", "url", plan.URL.String())
		ext, err = e.fetch(ctx, plan.URL)
	} else {
		ext, err = extract(strings.NewReader(a.Content), plan.Source)
	}
	if err != nil {
		a.Content = ""
		return lberrs.E(lberrs.KindEnrichment, fmt.Errorf("error extracting content: %w", err))
	}

	a.Content = ext.HTML
	a.ExtractedText = &ext.Text
	a.ContentLength = ext.Length
	a.URL = plan.URL.String()
	if plan.CommentsURL != nil {
		a.CommentsURL = plan.CommentsURL
	}
	return nil
}

func extract(r io.Reader, base *url.URL) (Extracted, error) {
	parser := readability.NewParser()
	article, err := parser.Parse(r, base)
	if err != nil {
		return Extracted{}, err
	}
	if strings.TrimSpace(article.Content) == "" {
		return Extracted{}, errNoContent
	}

	sanitizer := htmlsanitizer.NewHTMLSanitizer()
	html, err := sanitizer.SanitizeString(article.Content)
	if err != nil {
		return Extracted{}, fmt.Errorf("error sanitizing: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	return Extracted{
		HTML:   strings.TrimSpace(html),
		Text:   text,
		Length: utf8.RuneCountInString(text),
	}, nil
}

// fetch downloads u and extracts it, retrying transient failures.
func (e *Enricher) fetch(ctx context.Context, u *url.URL) (Extracted, error) {
	key := u.String()
	if ext, ok := e.cache.Get(key); ok {
		return ext, nil
	}

	var ext Extracted
	backoff := retry.WithMaxRetries(e.opts.Retries, retry.NewFibonacci(e.opts.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, err := e.get(ctx, key)
		if err != nil {
			return err
		}
		defer body.Close()

		ext, err = extract(io.LimitReader(body, maxBodySize), u)
		return err
	})
	if err != nil {
		return Extracted{}, err
	}

	e.cache.Add(key, ext)
	return ext, nil
}

func (e *Enricher) get(ctx context.Context, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("http get: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.RetryableError(err)
		}
		return nil, err
	}
	return resp.Body, nil
}
