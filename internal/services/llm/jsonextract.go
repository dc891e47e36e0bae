package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)

// ExtractJSON finds the outermost balanced {...} or [...] in free-form model text,
// whichever opens first, and returns it with trailing commas removed.
// Code fences and surrounding prose are ignored. Returns false when nothing balanced is found.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return removeTrailingCommas(text[start : i+1]), true
			}
		}
	}
	return "", false
}

// removeTrailingCommas drops commas directly before a closing bracket outside strings
func removeTrailingCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}

	var b strings.Builder
	inString := false
	escaped := false
	segStart := 0
	flush := func(end int) {
		b.WriteString(trailingCommaRegex.ReplaceAllString(s[segStart:end], "$1"))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				b.WriteString(s[segStart : i+1])
				segStart = i + 1
			}
			continue
		}
		if c == '"' {
			flush(i)
			segStart = i
			inString = true
		}
	}
	if inString {
		b.WriteString(s[segStart:])
	} else {
		flush(len(s))
	}
	return b.String()
}

// DecodeJSON extracts and unmarshals JSON from model text into v.
// Returns false (never panics) when no JSON is found or it does not fit v.
func DecodeJSON(text string, v interface{}) bool {
	raw, ok := ExtractJSON(text)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}
