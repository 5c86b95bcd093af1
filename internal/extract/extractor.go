// Package extract fetches a company web page and normalizes its text and
// metadata. A Selector picks the backend for a URL; a Registry maps the
// chosen kind to its Extractor.
package extract

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/company-analyzer/internal/model"
)

// Extractor fetches and normalizes a single page.
type Extractor interface {
	Extract(ctx context.Context, url string) (*model.ExtractionResult, error)
	Kind() model.ExtractorKind
}

// Registry maps extractor kinds to implementations.
type Registry struct {
	byKind map[model.ExtractorKind]Extractor
}

// NewRegistry registers each extractor under its Kind. Later entries replace
// earlier ones of the same kind.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byKind: make(map[model.ExtractorKind]Extractor, len(extractors))}
	for _, e := range extractors {
		r.byKind[e.Kind()] = e
	}
	return r
}

// Extract runs the extractor registered for kind.
func (r *Registry) Extract(ctx context.Context, url string, kind model.ExtractorKind) (*model.ExtractionResult, error) {
	e, ok := r.byKind[kind]
	if !ok {
		return nil, eris.Errorf("extract: no extractor registered for %q", kind)
	}
	return e.Extract(ctx, url)
}

// classifyTransport maps a transport-level failure to a typed Error.
// Timeouts become ReasonTimeout, unresolvable hosts ReasonNotFound and
// refused or reset connections ReasonBlocked. Caller cancellation passes
// through untyped.
func classifyTransport(url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return failure(ReasonTimeout, url, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return failure(ReasonNotFound, url, err)
	}
	return failure(ReasonBlocked, url, err)
}

// classifyStatus maps an HTTP error status to a typed Error.
func classifyStatus(url string, code int, err error) error {
	switch code {
	case http.StatusNotFound, http.StatusGone:
		return failure(ReasonNotFound, url, err)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return failure(ReasonTimeout, url, err)
	default:
		return failure(ReasonBlocked, url, err)
	}
}
