package llm

import "strings"

// CleanJSON strips a markdown code fence wrapped around a model reply. Prose
// outside the fence, or around an unfenced object, is left in place so the
// reply fails to decode.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
