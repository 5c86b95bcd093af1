package search

import (
	"strings"
	"unicode"
)

// SanitizeQuery removes characters that search providers treat as
// operators (quotes, colons, parentheses, wildcards, question marks) and
// collapses whitespace. A leading '-' on a word is dropped so it is not
// read as an exclusion.
func SanitizeQuery(q string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '.', r == '\'', r == '&', r == '-', r == ',':
			return r
		default:
			return ' '
		}
	}, q)

	words := strings.Fields(cleaned)
	out := words[:0]
	for _, w := range words {
		w = strings.TrimLeft(w, "-")
		w = strings.TrimRight(w, ".,")
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// BuildQuery builds the search query for a question about a company. The
// company name is prepended unless the question already mentions it.
func BuildQuery(question, company string) string {
	company = strings.TrimSpace(company)
	if company != "" && company != "Unknown" &&
		!strings.Contains(strings.ToLower(question), strings.ToLower(company)) {
		question = company + " " + question
	}
	return SanitizeQuery(question)
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "do": true, "does": true, "did": true, "what": true,
	"which": true, "who": true, "whom": true, "how": true, "when": true,
	"why": true, "of": true, "for": true, "in": true, "on": true, "to": true,
	"at": true, "by": true, "it": true, "its": true, "this": true, "that": true,
	"can": true, "you": true, "tell": true, "me": true, "about": true,
	"please": true, "their": true, "they": true, "has": true, "have": true,
}

// Reformulate returns a keyword-only variant of a query built by
// BuildQuery, for a second attempt after zero results. ok is false when
// stripping stop words leaves nothing new to try.
func Reformulate(question, company string) (query string, ok bool) {
	original := BuildQuery(question, company)

	var kept []string
	for _, w := range strings.Fields(original) {
		if !stopWords[strings.ToLower(w)] {
			kept = append(kept, w)
		}
	}
	query = strings.Join(kept, " ")
	if query == "" || query == original {
		return "", false
	}
	return query, true
}
