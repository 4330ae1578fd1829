package llm

// firstJSONObject returns the first balanced top-level JSON object found in
// s, or "" when none exists. Completions frequently wrap the object in code
// fences or prose, so the object is located by brace depth with string and
// escape tracking rather than by unmarshalling the whole completion.
func firstJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
