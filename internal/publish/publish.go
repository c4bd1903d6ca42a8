// Package publish gates student access to the active test. Every gating
// decision is a pure function of the test's publication state plus the two
// required student identity fields.
package publish

import (
	"errors"
	"strings"

	"github.com/nhattran/eduai/internal/model"
)

// State is the publication state of the active test.
type State string

const (
	// StateAbsent means no active test exists.
	StateAbsent State = "absent"
	// StateDraft means a test exists but the teacher has not opened it yet.
	StateDraft State = "draft"
	// StatePublished means students may start the test.
	StatePublished State = "published"
)

// Gate errors. Handlers translate these into localized inline messages; none
// of them mutate state.
var (
	ErrNoTest          = errors.New("no active test")
	ErrNotPublished    = errors.New("test is not published")
	ErrMissingIdentity = errors.New("student name and class are required")
)

// StateOf derives the publication state from the active test.
func StateOf(t *model.TestData) State {
	switch {
	case t == nil:
		return StateAbsent
	case t.IsPublished:
		return StatePublished
	default:
		return StateDraft
	}
}

// CanStart reports whether a student with the given identity may begin the
// test. The publication gate is checked before the identity fields, matching
// the order the portal shows its messages in.
func CanStart(t *model.TestData, name, class string) error {
	switch StateOf(t) {
	case StateAbsent:
		return ErrNoTest
	case StateDraft:
		return ErrNotPublished
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(class) == "" {
		return ErrMissingIdentity
	}
	return nil
}

// Toggle flips a draft test to published and back.
func Toggle(t *model.TestData) {
	if t != nil {
		t.IsPublished = !t.IsPublished
	}
}
