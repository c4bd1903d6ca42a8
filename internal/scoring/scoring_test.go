package scoring

import (
	"testing"

	"github.com/nhattran/eduai/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "i go to school", "i go to school"},
		{"uppercase", "I Go To School", "i go to school"},
		{"surrounding whitespace", "  I   go to school.  ", "i go to school"},
		{"punctuation stripped", "I go to school!", "i go to school"},
		{"commas and questions", "Yes, I do?", "yes i do"},
		{"empty", "", ""},
		{"only punctuation", ".?!,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsCorrectMultipleChoice(t *testing.T) {
	q := model.Question{
		ID:      "q1",
		Content: "Choose the correct verb.",
		Options: []string{"run", "walk", "jump", "sit"},
		Answer:  "B",
	}

	if !IsCorrect(q, "B") {
		t.Error("exact option letter should be correct")
	}
	// Option letters are case-sensitive single uppercase characters.
	if IsCorrect(q, "b") {
		t.Error("lowercase option letter should be incorrect")
	}
	if IsCorrect(q, "walk") {
		t.Error("option text should not match the letter key")
	}
	if IsCorrect(q, "") {
		t.Error("empty answer should be incorrect")
	}
}

func TestIsCorrectFreeText(t *testing.T) {
	q := model.Question{
		ID:      "q1",
		Content: "Rewrite the sentence.",
		Answer:  "I go to school.",
	}

	for _, ans := range []string{"i go to school", "  I   go to school.  ", "I go to school!"} {
		if !IsCorrect(q, ans) {
			t.Errorf("expected %q to be correct", ans)
		}
	}
	if IsCorrect(q, "I go to the school.") {
		t.Error("different sentence should be incorrect")
	}
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: "q1", Options: []string{"run", "walk", "jump", "sit"}, Answer: "B"},
		{ID: "q2", Answer: "I go to school."},
	}
}

func TestScore(t *testing.T) {
	test := &model.TestData{
		Title:     "Unit 1",
		Grade:     model.Grade6,
		Unit:      "Unit 1: My New School",
		Duration:  15,
		Questions: testQuestions(),
	}

	tests := []struct {
		name    string
		answers map[string]string
		want    float64
	}{
		{"all correct", map[string]string{"q1": "B", "q2": "i go to school"}, 10.0},
		{"half correct", map[string]string{"q1": "B", "q2": "wrong"}, 5.0},
		{"none correct", map[string]string{"q1": "A", "q2": ""}, 0.0},
		{"missing answers count as empty", map[string]string{}, 0.0},
		{"nil answers", nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(test, tt.answers); got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreRounding(t *testing.T) {
	// 1 of 3 correct: 10/3 = 3.333... rounds to 3.3.
	test := &model.TestData{
		Questions: []model.Question{
			{ID: "q1", Answer: "yes"},
			{ID: "q2", Answer: "no"},
			{ID: "q3", Answer: "maybe"},
		},
	}
	got := Score(test, map[string]string{"q1": "yes"})
	if got != 3.3 {
		t.Errorf("Score() = %v, want 3.3", got)
	}

	// 2 of 3: 6.666... rounds to 6.7.
	got = Score(test, map[string]string{"q1": "yes", "q2": "no"})
	if got != 6.7 {
		t.Errorf("Score() = %v, want 6.7", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	test := &model.TestData{Questions: testQuestions()}
	answers := map[string]string{"q1": "B"}
	first := Score(test, answers)
	second := Score(test, answers)
	if first != second {
		t.Errorf("Score not deterministic: %v then %v", first, second)
	}
}

func TestScoreNoQuestions(t *testing.T) {
	if got := Score(&model.TestData{}, nil); got != 0 {
		t.Errorf("Score of empty test = %v, want 0", got)
	}
	if got := Score(nil, nil); got != 0 {
		t.Errorf("Score of nil test = %v, want 0", got)
	}
}
