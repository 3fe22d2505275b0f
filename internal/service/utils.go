package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// sanitizeUTF8 removes invalid UTF-8 sequences from string
// This prevents PostgreSQL encoding errors when saving text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var result strings.Builder
	result.Grow(len(s))

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			s = s[1:]
			continue
		}
		result.WriteRune(r)
		s = s[size:]
	}

	return result.String()
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// decodeJSONObject finds the outermost JSON object in a model reply, which
// may be wrapped in markdown fences or prose, and decodes it into v.
func decodeJSONObject(content string, v any) error {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object in response: %q", truncateRunes(content, 200))
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
