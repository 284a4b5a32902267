// Package tokens estimates how many model tokens a text will occupy.
package tokens

import "strings"

// Estimator turns text into an approximate token count. Implementations
// must be pure: the same text always yields the same count.
type Estimator interface {
	Estimate(text string) int
}

// TokensPerWord is the ratio applied by WordEstimator: each word counts as
// 1.2 tokens.
const TokensPerWord = 1.2

// WordEstimator counts whitespace-separated words and scales them by
// TokensPerWord, truncating toward zero.
type WordEstimator struct{}

// Estimate implements Estimator.
func (WordEstimator) Estimate(text string) int {
	return int(float64(len(strings.Fields(text))) * TokensPerWord)
}

// Func adapts a plain function to Estimator.
type Func func(text string) int

// Estimate implements Estimator.
func (f Func) Estimate(text string) int { return f(text) }
