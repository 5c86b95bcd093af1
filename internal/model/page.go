package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ExtractorKind identifies the extraction backend used for a page.
type ExtractorKind string

const (
	// ExtractorStatic parses server-rendered markup directly.
	ExtractorStatic ExtractorKind = "static"
	// ExtractorScripted renders the page in a browser before reading it.
	ExtractorScripted ExtractorKind = "scripted"
)

// AllExtractorKinds returns the closed set of extraction backends.
func AllExtractorKinds() []ExtractorKind {
	return []ExtractorKind{ExtractorStatic, ExtractorScripted}
}

// ParseExtractorKind converts a string to an ExtractorKind.
func ParseExtractorKind(s string) (ExtractorKind, error) {
	for _, k := range AllExtractorKinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", eris.Errorf("unknown extractor kind %q", s)
}

// ExtractionResult is the normalized text and metadata of a fetched page.
type ExtractionResult struct {
	SourceURL       string        `json:"source_url"`
	Title           string        `json:"title"`
	MetaDescription string        `json:"meta_description"`
	MetaKeywords    string        `json:"meta_keywords"`
	CleanedText     string        `json:"cleaned_text"`
	ExtractorUsed   ExtractorKind `json:"extractor_used"`
	FetchedAt       time.Time     `json:"fetched_at"`
}

// SearchResult is a single hit returned by a web search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}
