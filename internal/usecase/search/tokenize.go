package search

import (
	"strings"
	"unicode"
)

// MinTokenLength is the shortest token, in runes, that takes part in matching.
const MinTokenLength = 2

// Tokenize lower-cases text, splits it on whitespace and trims leading and
// trailing runes that are neither letters nor digits. Short tokens are
// dropped and repeats removed, first occurrence wins.
func Tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tok := trimToken(f)
		if !longEnough(tok) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if tok := trimToken(f); longEnough(tok) {
			set[tok] = struct{}{}
		}
	}
	return set
}

func trimToken(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func longEnough(tok string) bool {
	n := 0
	for range tok {
		n++
		if n >= MinTokenLength {
			return true
		}
	}
	return false
}
