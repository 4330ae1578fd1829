// Package language provides keyword classifiers for the conversation
// policy: minority-language detection and consent detection. Matching is
// plain case-insensitive substring search so word lists can be extended
// without touching the state machine.
package language

import "strings"

type Matcher struct {
	words []string
}

func NewMatcher(words ...string) *Matcher {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Matcher{words: lowered}
}

// Matches reports whether any configured word occurs in the text.
func (m *Matcher) Matches(text string) bool {
	if m == nil || len(m.words) == 0 {
		return false
	}
	low := strings.ToLower(text)
	for _, w := range m.words {
		if strings.Contains(low, w) {
			return true
		}
	}
	return false
}

// QuechuaMarkers returns the default marker words that trigger bilingual
// seeding of the first exchange.
func QuechuaMarkers() *Matcher {
	return NewMatcher("llaki", "kawsay", "ñawi", "munay", "wasi", "rimay", "sunqu", "llapa")
}

// Affirmations returns the default consent words in Spanish and Quechua.
func Affirmations() *Matcher {
	return NewMatcher("sí", "si", "claro", "ari", "de acuerdo", "por favor")
}
