package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultTextBudget is the maximum number of characters of cleaned text
// handed to the completion service.
const DefaultTextBudget = 8000

// CleanText normalizes extracted page text: lines are trimmed, runs of two
// or more spaces start a new line, and blank lines are dropped.
func CleanText(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		for _, chunk := range strings.Split(line, "  ") {
			chunk = strings.TrimSpace(chunk)
			if chunk != "" {
				out = append(out, chunk)
			}
		}
	}
	return strings.Join(out, "\n")
}

// Truncate caps s at budget characters. The cut falls on the last
// whitespace at or before the budget so no word is split; if there is no
// such whitespace the result is empty.
func Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= budget {
		return s
	}

	cut := -1
	n := 0
	for i, r := range s {
		if n == budget {
			if unicode.IsSpace(r) {
				cut = i
			}
			break
		}
		if unicode.IsSpace(r) {
			cut = i
		}
		n++
	}
	if cut < 0 {
		return ""
	}
	return strings.TrimRightFunc(s[:cut], unicode.IsSpace)
}
