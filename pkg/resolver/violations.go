package resolver

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Violation is one selection constraint failure. Validate collects
// every violation so callers can present complete, actionable feedback.
type Violation interface {
	error
	// Code identifies the violated constraint kind
	Code() string
}

// ConflictViolation reports two or more co-selected conflicting skills
type ConflictViolation struct {
	IDs    []string
	Reason string
}

// Code identifies the violated constraint kind
func (v *ConflictViolation) Code() string { return "conflict" }

func (v *ConflictViolation) Error() string {
	msg := fmt.Sprintf("conflicting skills selected: %s", strings.Join(v.IDs, ", "))
	if v.Reason != "" {
		msg += " (" + v.Reason + ")"
	}
	return msg
}

// RequiresViolation reports a selected skill whose dependency condition
// is unmet
type RequiresViolation struct {
	ID      string
	Missing []string
	Mode    string
	Reason  string
}

// Code identifies the violated constraint kind
func (v *RequiresViolation) Code() string { return "requires" }

func (v *RequiresViolation) Error() string {
	var msg string
	if v.Mode == "any" {
		msg = fmt.Sprintf("%s requires one of: %s", v.ID, strings.Join(v.Missing, ", "))
	} else {
		msg = fmt.Sprintf("%s requires %s", v.ID, strings.Join(v.Missing, ", "))
	}
	if v.Reason != "" {
		msg += " (" + v.Reason + ")"
	}
	return msg
}

// ExclusivityViolation reports more than one selected member of an
// exclusive category
type ExclusivityViolation struct {
	Category string
	IDs      []string
}

// Code identifies the violated constraint kind
func (v *ExclusivityViolation) Code() string { return "exclusivity" }

func (v *ExclusivityViolation) Error() string {
	return fmt.Sprintf("category %q allows only one skill, got: %s", v.Category, strings.Join(v.IDs, ", "))
}

// MissingCategoryViolation reports a required category with no selected
// member
type MissingCategoryViolation struct {
	Category string
}

// Code identifies the violated constraint kind
func (v *MissingCategoryViolation) Code() string { return "missing-category" }

func (v *MissingCategoryViolation) Error() string {
	return fmt.Sprintf("required category %q has no selected skill", v.Category)
}

// ViolationsToError collapses a violation list into a single error for
// callers that want err-or-nil semantics. Returns nil for an empty list.
func ViolationsToError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	var result *multierror.Error
	for _, v := range violations {
		result = multierror.Append(result, v)
	}
	return result.ErrorOrNil()
}
