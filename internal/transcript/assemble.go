// Package transcript cleans and folds recognized utterances for matching.
package transcript

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean collapses whitespace and drops the sentence punctuation recognizers
// append to final results.
func Clean(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	return strings.TrimRight(normalized, ".!?…")
}

// Fold lowercases text, strips diacritics, and turns punctuation into word
// breaks so keyword tables can be matched token by token. A word holding an
// at-sign is an email address and stays one token.
func Fold(text string) string {
	stripped := StripDiacritics(strings.ToLower(text))
	words := strings.Fields(stripped)
	out := make([]string, 0, len(words))
	for _, word := range words {
		if strings.Contains(word, "@") {
			if trimmed := strings.TrimFunc(word, isEdgePunct); trimmed != "" {
				out = append(out, trimmed)
			}
			continue
		}
		out = append(out, strings.Fields(strings.Map(wordBreak, word))...)
	}
	return strings.Join(out, " ")
}

func wordBreak(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return ' '
}

func isEdgePunct(r rune) bool {
	return r != '@' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// StripDiacritics removes combining marks after canonical decomposition.
func StripDiacritics(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Tokens returns the folded words of text.
func Tokens(text string) []string {
	return strings.Fields(Fold(text))
}

// IndexPhrase reports the token offset where phrase starts inside tokens,
// or -1. phrase is folded before matching.
func IndexPhrase(tokens []string, phrase string) int {
	want := Tokens(phrase)
	if len(want) == 0 || len(want) > len(tokens) {
		return -1
	}
	for i := 0; i+len(want) <= len(tokens); i++ {
		match := true
		for j := range want {
			if tokens[i+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// HasPrefixPhrase reports whether tokens start with phrase.
func HasPrefixPhrase(tokens []string, phrase string) bool {
	want := Tokens(phrase)
	if len(want) == 0 || len(want) > len(tokens) {
		return false
	}
	for i := range want {
		if tokens[i] != want[i] {
			return false
		}
	}
	return true
}
