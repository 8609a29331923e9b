package ailink

import (
	"strings"
	"unicode"
)

// MaxSuggestions bounds the autocomplete list.
const MaxSuggestions = 3

// ParseSuggestions turns free-text model output into at most MaxSuggestions
// distinct entries in first-seen order. Leading list decoration (bullets,
// numbering, parentheses) is removed from each line.
func ParseSuggestions(raw string) []string {
	suggestions := make([]string, 0, MaxSuggestions)
	if raw == "" {
		return suggestions
	}

	for _, line := range strings.FieldsFunc(raw, isLineBreak) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeftFunc(line, isListDecoration))
		if line == "" || containsString(suggestions, line) {
			continue
		}
		suggestions = append(suggestions, line)
		if len(suggestions) >= MaxSuggestions {
			break
		}
	}
	return suggestions
}

// isLineBreak matches every line boundary a model may emit, including vertical
// tab, form feed, the ASCII separators, NEL and the Unicode line and paragraph
// separators.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func isListDecoration(r rune) bool {
	switch r {
	case '-', '*', '.', '(', ')':
		return true
	}
	return unicode.IsSpace(r) || unicode.IsDigit(r)
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
