package catalog

import "fmt"

// DuplicateIdentifierError reports two catalog entries sharing an identifier
type DuplicateIdentifierError struct {
	ID string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate skill identifier %q", e.ID)
}

// DanglingReferenceError reports a rule referencing an identifier that
// is absent from the entry set
type DanglingReferenceError struct {
	Rule string
	ID   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("%s rule references unknown skill %q", e.Rule, e.ID)
}
