package command

import (
	"strings"
)

// Return the next word of text starting at pos, along with the position
// right after it. If no word is left, return "" and -1.
//
// Words are separated by whitespace, except between backticks. If keyword is
// true, the word is read from upper, which must be the upper-cased mirror of
// text as returned by upperASCII, otherwise it keeps its original case.
func nextWord(text, upper string, pos int, keyword bool) (string, int) {
	if pos < 0 {
		return "", -1
	}
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	if pos >= len(text) {
		return "", -1
	}

	start := pos
	quoted := false
	for ; pos < len(text); pos++ {
		c := text[pos]
		if c == '`' {
			quoted = !quoted
			continue
		}
		if !quoted && isSpace(c) {
			break
		}
	}

	if keyword {
		return upper[start:pos], pos
	}
	return text[start:pos], pos
}

// Upper-case ASCII letters only, so that byte offsets in the result match
// the ones in s.
func upperASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, s)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func skipSpaces(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

// Split a <class>.<property> word into its identifiers. Dots between
// backticks are part of the identifier; the backticks are dropped. Empty
// segments are skipped.
func splitQualified(word string) []string {
	parts := []string{}
	b := strings.Builder{}
	quoted := false
	flush := func() {
		if token := strings.TrimSpace(b.String()); token != "" {
			parts = append(parts, token)
		}
		b.Reset()
	}
	for _, c := range word {
		switch {
		case c == '`':
			quoted = !quoted
		case c == '.' && !quoted:
			flush()
		default:
			b.WriteRune(c)
		}
	}
	flush()
	return parts
}
