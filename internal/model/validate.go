package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidTest reports a test definition that violates the structural
// invariants: missing required fields, a grade outside 6-9, no questions, or
// a multiple-choice answer that is not one of the generated option labels.
var ErrInvalidTest = errors.New("invalid test definition")

var validate = validator.New()

// ValidateTest checks a test definition against the structural invariants.
func ValidateTest(t *TestData) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTest, err)
	}
	for i, q := range t.Questions {
		if !q.IsMultipleChoice() {
			continue
		}
		if !validOptionAnswer(q) {
			return fmt.Errorf("%w: question %d answer %q is not an option label",
				ErrInvalidTest, i+1, q.Answer)
		}
	}
	return nil
}

// ValidateParams checks the generation request inputs.
func ValidateParams(p GenerateParams) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTest, err)
	}
	return nil
}

func validOptionAnswer(q Question) bool {
	for i := range q.Options {
		if q.Answer == OptionLabel(i) {
			return true
		}
	}
	return false
}
