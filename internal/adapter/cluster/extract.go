package cluster

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON document out of a raw chat completion. Models
// wrap JSON in fenced code blocks or surround it with prose, so candidates
// are tried in order of specificity: a ```json fence, a generic ``` fence,
// the first balanced top-level {...} span, then the whole trimmed text.
// Returns false when no candidate is valid JSON.
func ExtractJSON(raw string) (string, bool) {
	for _, candidate := range extractCandidates(raw) {
		if candidate != "" && json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

func extractCandidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	var candidates []string

	if _, after, found := strings.Cut(raw, "```json"); found {
		inner, _, _ := strings.Cut(after, "```")
		candidates = append(candidates, strings.TrimSpace(inner))
	} else if parts := strings.SplitN(raw, "```", 3); len(parts) == 3 {
		candidates = append(candidates, strings.TrimSpace(parts[1]))
	}

	if span, ok := balancedObject(raw); ok {
		candidates = append(candidates, span)
	}

	return append(candidates, raw)
}

// balancedObject returns the first top-level {...} span in s, respecting
// string literals and escapes.
func balancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
