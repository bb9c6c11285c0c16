package content

import (
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jdholdren/liveboat/internal/liveboat"
)

const (
	redditHost   = "www.reddit.com"
	hnHost       = "news.ycombinator.com"
	hnrssHost    = "hnrss.org"
	redditAnchor = "[link]"
)

// Links to these hosts point back at reddit itself.
var redditSelfHosts = []string{"www.reddit.com", "i.redd.it", "old.reddit.com", "new.reddit.com"}

// Sites that block scraping or have nothing readability can use.
var noScrapeHosts = []string{"github.com", "github.io", "bloomberg.com", "youtube.com"}

var hnrssComments = regexp.MustCompile(`Comments URL:\s*<a[^>]*href\s*=\s*["']([^"']+)["']`)

// Plan is what enrichment will do with a single article.
type Plan struct {
	// URL is the page the article should link to, possibly rewritten.
	URL *url.URL
	// Source is the url readability resolves relative links against when
	// extracting from the article's own content.
	Source *url.URL
	// CommentsURL is set when the article's own link is a discussion page.
	CommentsURL *string
	// Scrape is true when URL must be fetched instead of extracting from the cached content.
	Scrape bool
}

// PlanFor decides how an article gets enriched. It never touches the network.
func (e *Enricher) PlanFor(a liveboat.Article) (Plan, error) {
	source, err := url.Parse(a.URL)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{URL: source, Source: source}
	resolved := e.opts.ScrapeRedditLinks && source.Host == redditHost && p.resolveReddit(a)
	if !resolved && e.opts.ScrapeHNLinks {
		p.resolveHN(a)
	}

	if matchesHost(p.URL.Host, noScrapeHosts) {
		p.Scrape = false
	}
	return p, nil
}

// resolveReddit swaps a reddit post for the page it links to.
func (p *Plan) resolveReddit(a liveboat.Article) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
	if err != nil {
		return false
	}

	var target *url.URL
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Text() != redditAnchor {
			return true
		}
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target, _ = url.Parse(href)
		return false
	})
	if target == nil || target.Host == "" || slices.Contains(redditSelfHosts, target.Host) {
		return false
	}

	comments := a.URL
	p.CommentsURL = &comments
	p.URL = target
	p.Scrape = true
	return true
}

func (p *Plan) resolveHN(a liveboat.Article) {
	if p.URL.Path == hnHost {
		return
	}

	owner := a.Owner()
	if owner == nil {
		return
	}
	feedURL, err := url.Parse(owner.URL())
	if err != nil {
		return
	}

	switch feedURL.Host {
	case hnrssHost:
		if m := hnrssComments.FindStringSubmatch(a.Content); m != nil {
			comments := m[1]
			p.CommentsURL = &comments
		}
		p.Scrape = !strings.HasPrefix(feedURL.Path, "/ask")
	case hnHost:
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.Content))
		if err == nil {
			if href, ok := doc.Find("a[href]").First().Attr("href"); ok {
				p.CommentsURL = &href
			}
		}
		p.Scrape = true
	}
}

// matchesHost reports whether host is one of domains or a subdomain of one.
func matchesHost(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
