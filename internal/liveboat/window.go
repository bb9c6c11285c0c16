package liveboat

import (
	"fmt"
	"time"
)

const (
	// MaxLiveArticles bounds the live window unless more articles than
	// that are recent enough.
	MaxLiveArticles = 50
	// LiveCutoffDays is the age, inclusive, under which articles always stay live.
	LiveCutoffDays = 2
)

// LiveWindow returns the articles used for the primary per-feed output and
// for content enrichment. The slice aliases the feed's storage.
func (f *Feed) LiveWindow() []Article {
	return f.LiveWindowAt(time.Now())
}

// LiveWindowAt is [Feed.LiveWindow] with ages measured from now.
//
// Because articles are sorted newest first and age only grows with
// distance into the past, the window is always a prefix of the list.
func (f *Feed) LiveWindowAt(now time.Time) []Article {
	if !f.sorted {
		panic(fmt.Errorf("live window on %q: %w", f.url, ErrNotSorted))
	}

	if len(f.articles) <= MaxLiveArticles {
		return f.articles
	}

	recent := 0
	for _, a := range f.articles {
		if a.AgeAt(now) > LiveCutoffDays {
			break
		}
		recent++
	}
	if recent >= MaxLiveArticles {
		return f.articles[:recent]
	}
	return f.articles[:MaxLiveArticles]
}
