// Package tokens estimates how many model tokens a span of text costs.
//
// Counts gate CI, so every estimator must be deterministic and monotonic:
// the same text always yields the same count, and appending text never
// lowers it.
package tokens

import "unicode/utf8"

// DefaultCharsPerToken is the conventional ~4 characters per token ratio.
const DefaultCharsPerToken = 4

// Estimator returns a non-negative token estimate for text.
type Estimator func(text string) int

// CharRatio returns an Estimator that divides the rune count by
// charsPerToken, rounding down. Values below 1 fall back to the default.
func CharRatio(charsPerToken int) Estimator {
	if charsPerToken < 1 {
		charsPerToken = DefaultCharsPerToken
	}
	return func(text string) int {
		return utf8.RuneCountInString(text) / charsPerToken
	}
}

// Default is CharRatio(DefaultCharsPerToken).
var Default = CharRatio(DefaultCharsPerToken)
