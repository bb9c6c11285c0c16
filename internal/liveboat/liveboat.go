// Package liveboat holds the in-memory model of a single build: feeds read
// from the newsboat cache, the articles attached to them, and the query
// feeds synthesized from saved filters.
package liveboat

import (
	"errors"

	"github.com/mr-tron/base58"
)

var (
	// ErrNotSorted is the panic value used when an order-dependent
	// lookup runs before [Feed.SortArticles].
	ErrNotSorted = errors.New("feed articles are not sorted")
)

type (
	// URLFeed is a single url line in the subscription file.
	URLFeed struct {
		URL           string
		Tags          []string
		Hidden        bool
		TitleOverride *string
		OrderIndex    int
	}

	// QueryFeed is a saved-search line in the subscription file.
	QueryFeed struct {
		Title      string
		OrderIndex int
		Filter     Predicate
	}

	// Predicate decides whether an article belongs to a query feed.
	// It only sees the article through its attributes.
	Predicate func(attrs Attributes) (bool, error)

	// Attributes is the lookup contract consumed by filter expressions.
	//
	// The boolean is false when the name is unknown, which is different from
	// a known attribute whose value is the empty string.
	Attributes interface {
		AttributeValue(name string) (string, bool)
	}
)

// FeedID derives a stable identifier from a feed url, or from the title for
// query feeds. The same input always produces the same id.
func FeedID(key string) string {
	return base58.Encode([]byte(key))
}
