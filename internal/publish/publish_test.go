package publish

import (
	"errors"
	"testing"

	"github.com/nhattran/eduai/internal/model"
)

func draftTest() *model.TestData {
	return &model.TestData{
		Title:     "Unit 2",
		Grade:     model.Grade7,
		Unit:      "Unit 2: Healthy Living",
		Duration:  45,
		Questions: []model.Question{{ID: "q1", Content: "c", Answer: "a"}},
	}
}

func TestStateOf(t *testing.T) {
	if got := StateOf(nil); got != StateAbsent {
		t.Errorf("StateOf(nil) = %q, want absent", got)
	}

	test := draftTest()
	if got := StateOf(test); got != StateDraft {
		t.Errorf("StateOf(draft) = %q, want draft", got)
	}

	test.IsPublished = true
	if got := StateOf(test); got != StatePublished {
		t.Errorf("StateOf(published) = %q, want published", got)
	}
}

func TestCanStart(t *testing.T) {
	published := draftTest()
	published.IsPublished = true

	tests := []struct {
		name        string
		test        *model.TestData
		studentName string
		class       string
		wantErr     error
	}{
		{"no test", nil, "An", "6A1", ErrNoTest},
		{"draft rejects even with identity", draftTest(), "An", "6A1", ErrNotPublished},
		{"published without name", published, "", "6A1", ErrMissingIdentity},
		{"published without class", published, "An", "", ErrMissingIdentity},
		{"whitespace identity", published, "   ", "\t", ErrMissingIdentity},
		{"published with identity", published, "Nguyễn Văn An", "6A1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanStart(tt.test, tt.studentName, tt.class)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanStart() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	test := draftTest()
	Toggle(test)
	if !test.IsPublished {
		t.Error("toggle should publish a draft")
	}
	Toggle(test)
	if test.IsPublished {
		t.Error("toggle should unpublish a published test")
	}
	// Toggling nil is a no-op, not a panic.
	Toggle(nil)
}
