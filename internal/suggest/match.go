package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LastWord returns the last whitespace-delimited token of text. It returns ""
// when text is blank or ends in whitespace, since there is no word being typed
// at the caret.
func LastWord(text string) string {
	r, _ := utf8.DecodeLastRuneInString(text)
	if text == "" || unicode.IsSpace(r) {
		return ""
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

// Match finds the completion of the word being typed at the end of input.
// It scans generated for the first word that starts with the last word of
// input and is strictly longer, and returns the part after that prefix.
func Match(input, generated string) (string, bool) {
	last := LastWord(input)
	if last == "" {
		return "", false
	}

	for _, word := range strings.Fields(generated) {
		if len(word) > len(last) && strings.HasPrefix(word, last) {
			return word[len(last):], true
		}
	}
	return "", false
}
