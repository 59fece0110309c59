// Package env expands ${env.KEY} references in configuration text.
package env

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// LookupFunc resolves a variable; unset variables resolve to "".
var LookupFunc = os.Getenv

// Expand replaces every ${env.KEY} in value, where KEY holds letters,
// digits or '_'. A reference with an invalid key is kept literally and an
// unterminated one ends expansion.
func Expand(value string) string {
	if !strings.Contains(value, prefix) {
		return value
	}
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], prefix)
		if idx < 0 {
			b.WriteString(value[i:])
			return b.String()
		}
		b.WriteString(value[i : i+idx])
		start := i + idx + len(prefix)
		end := strings.IndexByte(value[start:], '}')
		if end < 0 {
			b.WriteString(value[i+idx:])
			return b.String()
		}
		key := value[start : start+end]
		if !validKey(key) {
			b.WriteString(prefix)
			i = start
			continue
		}
		b.WriteString(LookupFunc(key))
		i = start + end + 1
	}
}

func validKey(key string) bool {
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}
