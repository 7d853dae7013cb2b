package catalog

// MatchMode controls how a Requires rule evaluates its dependency set
type MatchMode string

// Match modes
const (
	// MatchAll requires every dependency to be selected
	MatchAll MatchMode = "all"
	// MatchAny requires at least one dependency to be selected
	MatchAny MatchMode = "any"
)

// Rule is one relationship constraint between skill identifiers.
// Rules are data, not code: the resolver evaluates each variant
// generically, so new rule kinds do not require resolver changes.
type Rule interface {
	// Kind returns the rule variant name for diagnostics
	Kind() string
	// References returns every identifier the rule mentions,
	// used for dangling-reference checks and bidirectional indexing
	References() []string
}

// Conflict forbids co-selection of any two of its member identifiers.
// The relation is symmetric; no mirrored rule is needed.
type Conflict struct {
	IDs    []string
	Reason string
}

// Kind returns the rule variant name
func (r Conflict) Kind() string { return "conflicts" }

// References returns the conflicting identifiers
func (r Conflict) References() []string { return r.IDs }

// Requires mandates that when ID is selected, the dependency condition
// over DependsOn (all or any, per Mode) must be met
type Requires struct {
	ID        string
	DependsOn []string
	Mode      MatchMode
	Reason    string
}

// Kind returns the rule variant name
func (r Requires) Kind() string { return "requires" }

// References returns the trigger and its dependencies
func (r Requires) References() []string {
	refs := make([]string, 0, len(r.DependsOn)+1)
	refs = append(refs, r.ID)
	refs = append(refs, r.DependsOn...)
	return refs
}

// Recommends is a soft hint: when When is selected, Suggests become
// recommended. It never blocks a selection.
type Recommends struct {
	When     string
	Suggests []string
	Reason   string
}

// Kind returns the rule variant name
func (r Recommends) Kind() string { return "recommends" }

// References returns the trigger and suggested identifiers
func (r Recommends) References() []string {
	refs := make([]string, 0, len(r.Suggests)+1)
	refs = append(refs, r.When)
	refs = append(refs, r.Suggests...)
	return refs
}

// AlternativeGroup is an informational grouping of interchangeable
// entries serving the same purpose. It carries no enforcement.
type AlternativeGroup struct {
	Purpose string
	Members []string
}

// Kind returns the rule variant name
func (r AlternativeGroup) Kind() string { return "alternatives" }

// References returns the group members
func (r AlternativeGroup) References() []string { return r.Members }
