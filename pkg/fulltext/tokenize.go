package fulltext

import (
	"strings"
	"unicode"
)

// stopWords is a minimal list of truly generic English words. Technical
// terms are deliberately left untouched.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "to": true, "was": true, "were": true,
	"with": true, "this": true, "but": true, "they": true,
	"we": true, "you": true, "your": true, "my": true, "their": true,
	"been": true, "do": true, "does": true, "did": true,
}

// Tokenize lowercases text, splits on runs of non-letter/non-digit
// characters, and drops stop words and single-character tokens.
func Tokenize(text string) []string {
	text = Sanitize(text)
	text = strings.ToLower(text)

	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		tok := cur.String()
		cur.Reset()
		if len([]rune(tok)) < 2 || stopWords[tok] {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Sanitize strips control characters and lone surrogates that would
// otherwise corrupt tokenization or trigram extraction.
func Sanitize(text string) string {
	if len(text) == 0 {
		return text
	}
	var result strings.Builder
	result.Grow(len(text))
	for _, r := range text {
		switch {
		case (r >= 0x00 && r <= 0x08) || r == 0x0B || (r >= 0x0E && r <= 0x1F):
			result.WriteRune(' ')
		case r >= 0xD800 && r <= 0xDFFF:
			result.WriteRune('�')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
