package ghasedak

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeParam rewrites a template parameter into the character set the provider
// accepts. Letters and digits of any script, '-' and '.' are kept. Every other
// character is removed, each run of whitespace becomes a single '.', and '_'
// becomes '.'. Applying it twice gives the same result as applying it once.
func SanitizeParam(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	inSpace := false
	for _, r := range value {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('.')
				inSpace = true
			}
		case r == '_':
			b.WriteByte('.')
			inSpace = false
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.':
			b.WriteRune(r)
			inSpace = false
		default:
			// removed characters do not split a whitespace run
		}
	}
	return b.String()
}

// Params renders scalar values as template parameters.
func Params(values ...any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = SanitizeParam(v)
	}
	return out
}
