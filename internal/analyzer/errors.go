package analyzer

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation so callers can tell a bad input from
// an upstream outage or a malformed model response.
type Kind string

const (
	KindInvalidURL             Kind = "InvalidURL"
	KindInvalidParameter       Kind = "InvalidParameter"
	KindExtractionFailed       Kind = "ExtractionFailed"
	KindSearchFailed           Kind = "SearchFailed"
	KindLLMError               Kind = "LLMError"
	KindSchemaValidationFailed Kind = "SchemaValidationFailed"
	// KindCacheUnavailable is never returned; cache failures are logged and
	// treated as misses.
	KindCacheUnavailable Kind = "CacheUnavailable"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Op   string
	// Reason carries the extraction failure reason for KindExtractionFailed.
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("analyzer: %s: %s (%s): %v", e.Op, e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("analyzer: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fail(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when err
// is not a classified failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
