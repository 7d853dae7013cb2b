package resolver

import (
	"fmt"
	"strings"

	"github.com/stackgen/stackgen/pkg/catalog"
)

// Status classifies one catalog entry relative to the current selection
type Status string

// Availability statuses
const (
	// StatusSelectable means the entry can be added to the selection
	StatusSelectable Status = "selectable"
	// StatusDisabled means a rule or exclusivity constraint blocks the entry
	StatusDisabled Status = "disabled"
	// StatusRecommended means a recommends rule suggests the entry
	StatusRecommended Status = "recommended"
)

// Availability is the availability verdict for one catalog entry
type Availability struct {
	ID     string
	Status Status
	Reason string
}

// AvailabilityReport holds one verdict per catalog entry, in catalog
// load order
type AvailabilityReport struct {
	entries []Availability
	byID    map[string]Availability
}

// Entries returns all verdicts in catalog order
func (r *AvailabilityReport) Entries() []Availability {
	entries := make([]Availability, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// For returns the verdict for an identifier
func (r *AvailabilityReport) For(id string) (Availability, bool) {
	a, ok := r.byID[id]
	return a, ok
}

// ComputeAvailability classifies every catalog entry against the
// current selection. Disabled takes precedence over Recommended when
// both would apply. Pure function of (catalog, selection).
func ComputeAvailability(cat *catalog.Catalog, sel Selection) *AvailabilityReport {
	report := &AvailabilityReport{
		byID: make(map[string]Availability),
	}

	for _, entry := range cat.Entries() {
		availability := Availability{ID: entry.ID, Status: StatusSelectable}

		if reason, disabled := disabledReason(cat, sel, entry); disabled {
			availability.Status = StatusDisabled
			availability.Reason = reason
		} else if reason, recommended := recommendedReason(cat, sel, entry); recommended {
			availability.Status = StatusRecommended
			availability.Reason = reason
		}

		report.entries = append(report.entries, availability)
		report.byID[entry.ID] = availability
	}

	return report
}

// disabledReason reports whether the entry is blocked by a conflict
// rule member or an already-satisfied exclusive category
func disabledReason(cat *catalog.Catalog, sel Selection, entry *catalog.SkillEntry) (string, bool) {
	if sel.Contains(entry.ID) {
		return "", false
	}

	for _, rule := range cat.RulesFor(entry.ID) {
		conflict, ok := rule.(catalog.Conflict)
		if !ok {
			continue
		}
		for _, other := range conflict.IDs {
			if other == entry.ID || !sel.Contains(other) {
				continue
			}
			reason := fmt.Sprintf("conflicts with %s", other)
			if conflict.Reason != "" {
				reason += ": " + conflict.Reason
			}
			return reason, true
		}
	}

	if cat.IsExclusive(entry.Category) {
		for _, member := range cat.CategoryMembers(entry.Category) {
			if member != entry.ID && sel.Contains(member) {
				return fmt.Sprintf("category %q already satisfied by %s", entry.Category, member), true
			}
		}
	}

	return "", false
}

// recommendedReason reports whether a recommends rule suggests the
// unselected entry given the current selection
func recommendedReason(cat *catalog.Catalog, sel Selection, entry *catalog.SkillEntry) (string, bool) {
	if sel.Contains(entry.ID) {
		return "", false
	}

	for _, rule := range cat.RulesFor(entry.ID) {
		recommends, ok := rule.(catalog.Recommends)
		if !ok || !sel.Contains(recommends.When) {
			continue
		}
		for _, suggested := range recommends.Suggests {
			if suggested != entry.ID {
				continue
			}
			reason := fmt.Sprintf("recommended with %s", recommends.When)
			if recommends.Reason != "" {
				reason += ": " + recommends.Reason
			}
			return reason, true
		}
	}

	return "", false
}

// Validate checks the selection against every conflict, requires, and
// category constraint in the catalog. All violations are collected and
// returned together; a nil violation slice yields the ValidatedSelection
// the template compiler requires.
func Validate(cat *catalog.Catalog, sel Selection) (*ValidatedSelection, []Violation) {
	var violations []Violation

	for _, id := range sel.IDs() {
		if !cat.HasEntry(id) {
			violations = append(violations, &UnknownSkillViolation{ID: id})
		}
	}

	for _, rule := range cat.Rules() {
		switch r := rule.(type) {
		case catalog.Conflict:
			var selected []string
			for _, id := range r.IDs {
				if sel.Contains(id) {
					selected = append(selected, id)
				}
			}
			if len(selected) >= 2 {
				violations = append(violations, &ConflictViolation{IDs: selected, Reason: r.Reason})
			}
		case catalog.Requires:
			if !sel.Contains(r.ID) {
				continue
			}
			var missing []string
			satisfied := 0
			for _, dep := range r.DependsOn {
				if sel.Contains(dep) {
					satisfied++
				} else {
					missing = append(missing, dep)
				}
			}
			unmet := (r.Mode == catalog.MatchAll && len(missing) > 0) ||
				(r.Mode == catalog.MatchAny && satisfied == 0)
			if unmet {
				violations = append(violations, &RequiresViolation{
					ID:      r.ID,
					Missing: missing,
					Mode:    string(r.Mode),
					Reason:  r.Reason,
				})
			}
		}
	}

	for _, category := range cat.Categories() {
		if !cat.IsExclusive(category) {
			continue
		}
		var selected []string
		for _, member := range cat.CategoryMembers(category) {
			if sel.Contains(member) {
				selected = append(selected, member)
			}
		}
		if len(selected) > 1 {
			violations = append(violations, &ExclusivityViolation{Category: category, IDs: selected})
		}
	}

	for _, category := range cat.RequiredCategories() {
		satisfied := false
		for _, member := range cat.CategoryMembers(category) {
			if sel.Contains(member) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			violations = append(violations, &MissingCategoryViolation{Category: category})
		}
	}

	if len(violations) > 0 {
		return nil, violations
	}

	return &ValidatedSelection{selection: sel}, nil
}

// UnknownSkillViolation reports a selected identifier absent from the
// catalog
type UnknownSkillViolation struct {
	ID string
}

// Code identifies the violated constraint kind
func (v *UnknownSkillViolation) Code() string { return "unknown-skill" }

func (v *UnknownSkillViolation) Error() string {
	return fmt.Sprintf("unknown skill %q", v.ID)
}

// Describe renders a violation list as user-facing lines, one per
// violation
func Describe(violations []Violation) string {
	lines := make([]string, 0, len(violations))
	for _, v := range violations {
		lines = append(lines, fmt.Sprintf("[%s] %s", v.Code(), v.Error()))
	}
	return strings.Join(lines, "\n")
}
