// Package textutil holds small text helpers shared by ingestion and embedding.
package textutil

import "unicode/utf8"

// EstimateTokens approximates a token count as ceil(characters / 4).
// Characters are counted as runes. The value is for display only.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
