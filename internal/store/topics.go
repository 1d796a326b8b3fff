package store

import (
	"strings"
	"unicode"
)

// significantTokens extracts meaningful words from a story title.
func significantTokens(title string) []string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, w := range words {
		if len(w) >= 2 && !stopwords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "i": true, "we": true, "you": true,
	"he": true, "she": true, "they": true, "my": true, "your": true,
	"how": true, "what": true, "when": true, "where": true, "why": true,
	"not": true, "no": true, "new": true, "just": true, "about": true,
	"up": true, "out": true, "if": true, "so": true, "can": true,
	"all": true, "more": true, "also": true, "than": true, "very": true,
	"show": true, "hn": true, "ask": true, "tell": true, "yc": true,
	"using": true, "vs": true, "via": true,
}
