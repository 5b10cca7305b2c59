// Package keyword is the degraded-mode sibling of semantic retrieval: a
// plain substring search over flat text lines, used when the embedding
// pipeline is unavailable. Availability over precision.
package keyword

import (
	"regexp"
	"strings"
)

// Tokens are lowercase unicode words of at least 3 characters.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

// Search scans lines in stored order and returns up to maxResults lines
// containing any query token as a case-insensitive substring. Order is
// first-encountered, not relevance-ranked.
func Search(query string, lines []string, maxResults int) []string {
	if maxResults <= 0 {
		maxResults = 5
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var results []string
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, token := range tokens {
			if strings.Contains(lower, token) {
				results = append(results, line)
				break
			}
		}
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

// Tokenize extracts the searchable tokens of a query.
func Tokenize(query string) []string {
	return tokenRe.FindAllString(strings.ToLower(query), -1)
}
