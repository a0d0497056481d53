package fetch

import (
	"context"
	"fmt"
)

// Failure kinds for a description fetch.
const (
	KindTimeout  = "timeout"
	KindNotFound = "not_found"
	KindParse    = "parse_error"
	KindNetwork  = "network_error"
	KindEmpty    = "empty"
)

// Error is the typed failure returned by a description fetch.
type Error struct {
	Kind string
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher returns the full description text for a posting URL.
// Implementations must be safe for concurrent use by multiple workers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
