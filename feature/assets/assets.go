package assets

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher downloads the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sink stores asset bytes and answers whether a materialized path still exists.
type Sink interface {
	// Store writes data under the relative key and returns the materialized
	// path recorded in records and in the index.
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Exists reports whether a path previously returned by Store is still present.
	Exists(ctx context.Context, path string) (bool, error)
}

// Outcome is the terminal state of one materialization.
type Outcome int

const (
	// OutcomeCached means the URL was already known for this run or from the index.
	OutcomeCached Outcome = iota
	// OutcomeDeduplicated means the bytes were fetched but identical content was already stored.
	OutcomeDeduplicated
	// OutcomeMaterialized means novel content was stored.
	OutcomeMaterialized
	// OutcomeFallback means a step failed and the fallback path was returned.
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCached:
		return "cached"
	case OutcomeDeduplicated:
		return "deduplicated"
	case OutcomeMaterialized:
		return "materialized"
	case OutcomeFallback:
		return "fallback"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Recorder observes outcomes. fetched is the number of bytes downloaded for
// this call, zero when nothing was fetched.
type Recorder interface {
	RecordAsset(outcome Outcome, fetched int64)
}

// ErrNotImage is returned when a server answers with an HTML page or another
// non-image payload.
var ErrNotImage = errors.New("response is not an image")

// FetchError wraps a failed download.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// WriteError wraps a failed store.
type WriteError struct {
	URL string
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("store %s as %s: %v", e.URL, e.Key, e.Err)
}
func (e *WriteError) Unwrap() error { return e.Err }
