package asm

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes start at 1 to avoid clashing with parsly.EOF.
const (
	whitespaceCode = iota + 1
	commentCode
	mnemonicCode
	numberCode
	quotedCode
)

var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	commentToken    = parsly.NewToken(commentCode, "Comment", &commentMatcher{})
	mnemonicToken   = parsly.NewToken(mnemonicCode, "Mnemonic", &mnemonicMatcher{})
	numberToken     = parsly.NewToken(numberCode, "Number", &numberMatcher{})
	quotedToken     = parsly.NewToken(quotedCode, "Quoted", &quotedMatcher{})
)

// commentMatcher matches '#' up to, not including, the end of line.
type commentMatcher struct{}

func (m *commentMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '#' {
		return 0
	}
	matched := 1
	for i := pos + 1; i < cursor.InputSize && input[i] != '\n'; i++ {
		matched++
	}
	return matched
}

// mnemonicMatcher matches a lower case identifier that may contain digits.
type mnemonicMatcher struct{}

func (m *mnemonicMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || !isLetter(input[pos]) {
		return 0
	}
	matched := 1
	for i := pos + 1; i < cursor.InputSize; i++ {
		if !isLetter(input[i]) && !isDigit(input[i]) {
			break
		}
		matched++
	}
	return matched
}

// numberMatcher matches an optionally negative decimal integer.
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize {
		return 0
	}
	start := pos
	if input[pos] == '-' {
		pos++
	}
	digits := 0
	for ; pos < cursor.InputSize && isDigit(input[pos]); pos++ {
		digits++
	}
	if digits == 0 {
		return 0
	}
	return pos - start
}

// quotedMatcher matches a double quoted literal on a single line; \" and \\
// are the only escapes.
type quotedMatcher struct{}

func (m *quotedMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	if pos >= cursor.InputSize || input[pos] != '"' {
		return 0
	}
	for i := pos + 1; i < cursor.InputSize; i++ {
		switch input[i] {
		case '\\':
			i++
		case '\n':
			return 0
		case '"':
			return i - pos + 1
		}
	}
	return 0
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
