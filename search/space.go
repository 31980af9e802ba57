package search

import "regexp"

// spaceToken matches an all-caps latin token of 2-10 characters, the shape
// of a space key in the knowledge base.
var spaceToken = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}\b`)

// Acronyms that look like space keys but never are.
var spaceStopList = map[string]struct{}{
	"API":  {},
	"URL":  {},
	"HTTP": {},
	"ID":   {},
	"SQL":  {},
	"OK":   {},
}

// ExtractSpace pulls a space key out of free query text ("стек проекта
// RAUII" yields "RAUII"). Returns the first plausible token, or empty when
// the query names no space. An explicit space filter always beats the
// extracted one.
func ExtractSpace(query string) string {
	for _, token := range spaceToken.FindAllString(query, -1) {
		if _, stop := spaceStopList[token]; !stop {
			return token
		}
	}
	return ""
}
