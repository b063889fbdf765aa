package extractor

import "strings"

// fences are the markdown wrappers models put around JSON.
var fences = []string{"```json", "```JSON", "```"}

// ExtractJSONObject returns the first balanced top-level {...} object in s.
// Braces inside JSON strings are ignored. When no balanced object exists the
// fences are stripped and the trimmed remainder is returned so the caller's
// decoder reports the real problem.
func ExtractJSONObject(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if obj := firstObject(s); obj != "" {
		return obj
	}
	for _, f := range fences {
		s = strings.ReplaceAll(s, f, "")
	}
	return strings.TrimSpace(s)
}

func firstObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
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
				return s[start : i+1]
			}
		}
	}
	return ""
}
