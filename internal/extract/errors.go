package extract

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Reason classifies why an extraction failed.
type Reason string

const (
	ReasonTimeout      Reason = "timeout"
	ReasonNotFound     Reason = "not_found"
	ReasonBlocked      Reason = "blocked"
	ReasonEmptyContent Reason = "empty_content"
)

// ErrInvalidURL is returned for URLs that cannot be fetched at all.
var ErrInvalidURL = eris.New("extract: invalid url")

// Error is a typed extraction failure.
type Error struct {
	Reason Reason
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %s: %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("extract: %s: %s", e.Reason, e.URL)
}

func (e *Error) Unwrap() error { return e.Err }

func failure(reason Reason, url string, err error) *Error {
	return &Error{Reason: reason, URL: url, Err: err}
}
