// Package config loads the build options.
//
// Values are layered: defaults, then the TOML file, then LIVEBOAT_ prefixed
// environment variables. Command line flags are applied by the caller before
// [Options.Validate].
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"

	lberrs "github.com/jdholdren/liveboat/internal/errors"
)

// EnvPrefix prefixes every environment variable read into [Options].
const EnvPrefix = "LIVEBOAT_"

const defaultSiteURL = "http://site-url-not-set.io/you-can-set-it-in-liveboat-config"

// ErrNotInitialized is returned when a required path was never configured.
var ErrNotInitialized = errors.New("liveboat is not configured")

// Options are the settings for a single build.
type Options struct {
	Title    string `toml:"title" env:"TITLE, overwrite" json:"title"`
	SitePath string `toml:"site_path" env:"SITE_PATH, overwrite" json:"sitePath"`
	SiteURL  string `toml:"site_url" env:"SITE_URL, overwrite" json:"siteUrl"`

	ShowReadArticles                bool `toml:"show_read_articles" env:"SHOW_READ_ARTICLES, overwrite" json:"showReadArticles"`
	ScrapeRedditLinks               bool `toml:"scrape_reddit_links" env:"SCRAPE_REDDIT_LINKS, overwrite" json:"scrapeRedditLinks"`
	ScrapeHNLinks                   bool `toml:"scrape_hn_links" env:"SCRAPE_HN_LINKS, overwrite" json:"scrapeHnLinks"`
	IncludeArticleContentInRSSFeeds bool `toml:"include_article_content_in_rss_feeds" env:"INCLUDE_ARTICLE_CONTENT_IN_RSS_FEEDS, overwrite" json:"includeArticleContentInRssFeeds"`

	NewsboatURLsFile  string `toml:"newsboat_urls_file" env:"NEWSBOAT_URLS_FILE, overwrite" json:"-"`
	NewsboatCacheFile string `toml:"newsboat_cache_file" env:"NEWSBOAT_CACHE_FILE, overwrite" json:"-"`
	// TimeThreshold is how many days back articles are read from the cache.
	TimeThreshold int    `toml:"time_threshold" env:"TIME_THRESHOLD, overwrite" json:"timeThreshold"`
	BuildDir      string `toml:"build_dir" env:"BUILD_DIR, overwrite" json:"-"`
	TemplateDir   string `toml:"template_dir" env:"TEMPLATE_DIR, overwrite" json:"-"`

	FetchTimeout time.Duration `toml:"fetch_timeout" env:"FETCH_TIMEOUT, overwrite" json:"-"`
	LogFormat    string        `toml:"log_format" env:"LOG_FORMAT, overwrite" json:"-"`

	// Debug is only set from the command line.
	Debug bool `toml:"-" json:"-"`
}

// Default returns the options used when nothing else is configured.
func Default() Options {
	return Options{
		Title:                           "Liveboat feed page",
		SitePath:                        "/",
		SiteURL:                         defaultSiteURL,
		ShowReadArticles:                true,
		ScrapeRedditLinks:               true,
		ScrapeHNLinks:                   true,
		IncludeArticleContentInRSSFeeds: true,
		TimeThreshold:                   20,
		FetchTimeout:                    10 * time.Second,
		LogFormat:                       "text",
	}
}

// Load layers the TOML file at path and then the environment over the
// defaults. A missing file is not an error. A nil lookuper reads the
// process environment.
func Load(ctx context.Context, path string, lookuper envconfig.Lookuper) (Options, error) {
	opts := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &opts); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Options{}, lberrs.E(lberrs.KindSetup, fmt.Errorf("error parsing config file %q: %w", path, err))
		}
	}

	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &opts,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, lookuper),
	}); err != nil {
		return Options{}, lberrs.E(lberrs.KindSetup, fmt.Errorf("error reading environment: %w", err))
	}

	return opts, nil
}

// Validate checks that a build can run with these options and normalizes
// the site url to end with a slash.
func (o *Options) Validate() error {
	var details []lberrs.Detail
	for _, p := range []struct{ field, path string }{
		{"newsboat_urls_file", o.NewsboatURLsFile},
		{"newsboat_cache_file", o.NewsboatCacheFile},
		{"template_dir", o.TemplateDir},
	} {
		if p.path == "" {
			details = append(details, lberrs.Detail{Field: p.field, Error: "not set"})
			continue
		}
		if _, err := os.Stat(p.path); err != nil {
			details = append(details, lberrs.Detail{Field: p.field, Error: err.Error()})
		}
	}
	if o.BuildDir == "" {
		details = append(details, lberrs.Detail{Field: "build_dir", Error: "not set"})
	}
	if o.TimeThreshold <= 0 {
		details = append(details, lberrs.Detail{Field: "time_threshold", Error: "must be a positive number of days"})
	}

	u, err := url.Parse(o.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		details = append(details, lberrs.Detail{Field: "site_url", Error: "must be an absolute url"})
	}

	if len(details) > 0 {
		return lberrs.E(lberrs.KindSetup, ErrNotInitialized, details)
	}

	if !strings.HasSuffix(o.SiteURL, "/") {
		o.SiteURL += "/"
	}
	return nil
}
