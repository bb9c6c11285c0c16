package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the build is allowed to react to it.
type Kind string

const (
	// KindSetup is a missing path or invalid option; nothing has been written yet.
	KindSetup Kind = "setup"
	// KindSubscription is a malformed urls file. The file is all-or-nothing.
	KindSubscription Kind = "subscription"
	// KindStore is a failure reading the newsboat cache.
	KindStore Kind = "store"
	// KindEnrichment is a single article failing to fetch or extract. Recovered locally.
	KindEnrichment Kind = "enrichment"
	// KindOutput is an I/O failure while emitting or publishing.
	KindOutput Kind = "output"
	// KindCanceled is a build interrupted before it published.
	KindCanceled Kind = "canceled"
)

// Error represents a universal error type for the build.
type Error struct {
	Kind    Kind
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s, details: %v", e.Kind, e.Err, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the build must stop when it sees this error.
func (e *Error) Fatal() bool {
	return e.Kind != KindEnrichment
}

// E constructs an [Error] from any mix of a message, a wrapped error, a [Kind] and details.
// The kind defaults to [KindOutput].
func E(args ...any) *Error {
	ret := &Error{
		Kind:    KindOutput,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case Kind:
			ret.Kind = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// IsFatal reports whether err carries an [Error] that must stop the build.
// Errors without a kind are not fatal.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Fatal()
	}
	return false
}

// KindOf returns the kind of the first [Error] in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
