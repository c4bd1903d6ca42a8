// Package scoring grades a completed test attempt against the answer key.
package scoring

import (
	"math"
	"strings"

	"github.com/nhattran/eduai/internal/model"
)

var punctuation = strings.NewReplacer(".", "", "?", "", "!", "", ",", "")

// Normalize canonicalizes a free-text answer for comparison: lowercase,
// trimmed, internal whitespace runs collapsed to a single space, and the
// characters . ? ! , removed. Option-letter answers are never normalized.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return punctuation.Replace(s)
}

// IsCorrect reports whether a submitted answer matches the question's key.
// Multiple-choice answers are compared exactly (option letters are single
// uppercase characters); free-text answers are compared after normalization.
func IsCorrect(q model.Question, answer string) bool {
	if q.IsMultipleChoice() {
		return answer == q.Answer
	}
	return Normalize(answer) == Normalize(q.Answer)
}

// Score grades the submitted answers against the test on a 0-10 scale,
// rounded half-up to one decimal. A question with no submitted answer counts
// as an empty answer. A test with no questions scores 0.
func Score(test *model.TestData, answers map[string]string) float64 {
	if test == nil || len(test.Questions) == 0 {
		return 0
	}
	correct := 0
	for _, q := range test.Questions {
		if IsCorrect(q, answers[q.ID]) {
			correct++
		}
	}
	raw := float64(correct) / float64(len(test.Questions)) * 10
	return math.Round(raw*10) / 10
}
