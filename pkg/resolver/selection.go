// Package resolver computes skill availability for a partial selection
// and validates final selections against the catalog's relationship
// rules. All operations are pure functions of (catalog, selection);
// validity is always recomputed, never cached on the selection value.
package resolver

// Selection is an ordered, immutable set of skill identifiers. The
// order is selection order; it does not affect resolution but is
// preserved for deterministic compilation output.
type Selection struct {
	ids []string
}

// NewSelection creates a selection from identifiers, dropping duplicates
// while preserving first-occurrence order
func NewSelection(ids ...string) Selection {
	seen := make(map[string]bool, len(ids))
	deduped := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, id)
	}
	return Selection{ids: deduped}
}

// IDs returns the selected identifiers in selection order
func (s Selection) IDs() []string {
	ids := make([]string, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Contains reports whether the identifier is selected
func (s Selection) Contains(id string) bool {
	for _, candidate := range s.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Len returns the number of selected identifiers
func (s Selection) Len() int {
	return len(s.ids)
}

// With returns a new selection with the identifier appended. The
// receiver is not mutated.
func (s Selection) With(id string) Selection {
	if s.Contains(id) {
		return s
	}
	ids := make([]string, 0, len(s.ids)+1)
	ids = append(ids, s.ids...)
	ids = append(ids, id)
	return Selection{ids: ids}
}

// Without returns a new selection with the identifier removed. The
// receiver is not mutated.
func (s Selection) Without(id string) Selection {
	ids := make([]string, 0, len(s.ids))
	for _, candidate := range s.ids {
		if candidate != id {
			ids = append(ids, candidate)
		}
	}
	return Selection{ids: ids}
}

// ValidatedSelection is a selection that passed Validate with zero
// violations. It is the only selection type the template compiler
// accepts, and is constructible only through Validate.
type ValidatedSelection struct {
	selection Selection
}

// IDs returns the validated identifiers in selection order
func (v *ValidatedSelection) IDs() []string {
	return v.selection.IDs()
}

// Contains reports whether the identifier is part of the validated selection
func (v *ValidatedSelection) Contains(id string) bool {
	return v.selection.Contains(id)
}
