// Package catalog provides the normalized in-memory model of a skill
// catalog: skill entries, their categories, and the relationship rules
// between them. The model is built once from loaded source data and is
// immutable for the rest of a compilation run.
package catalog

// SkillEntry represents one reusable content unit in the catalog
type SkillEntry struct {
	ID          string   // Unique identifier within the catalog, from frontmatter
	Category    string   // Single-valued classification (e.g., "styling")
	Exclusive   bool     // Whether only one entry of the category may be selected
	Tags        []string // Free-form tag set
	Description string   // Brief description from frontmatter
	Content     string   // Body of the skill document, frontmatter stripped
}

// Catalog is the normalized lookup model over skill entries and rules.
// All accessors return data in deterministic (load) order.
type Catalog struct {
	entries    map[string]*SkillEntry
	order      []string
	categories map[string][]string
	catOrder   []string
	exclusive  map[string]bool
	rules      []Rule
	rulesByID  map[string][]Rule
	required   []string
}

// BuildOption configures catalog construction
type BuildOption func(*Catalog)

// WithRequiredCategories marks categories that must have at least one
// selected member for a selection to validate
func WithRequiredCategories(categories ...string) BuildOption {
	return func(c *Catalog) {
		c.required = append(c.required, categories...)
	}
}

// Build normalizes entries and rules into a Catalog. It fails with
// DuplicateIdentifierError if two entries share an identifier, and with
// DanglingReferenceError if a rule references an unknown identifier.
func Build(entries []SkillEntry, rules []Rule, opts ...BuildOption) (*Catalog, error) {
	c := &Catalog{
		entries:    make(map[string]*SkillEntry, len(entries)),
		categories: make(map[string][]string),
		exclusive:  make(map[string]bool),
		rulesByID:  make(map[string][]Rule),
	}

	for i := range entries {
		entry := entries[i]
		if _, exists := c.entries[entry.ID]; exists {
			return nil, &DuplicateIdentifierError{ID: entry.ID}
		}
		c.entries[entry.ID] = &entry
		c.order = append(c.order, entry.ID)

		if _, seen := c.categories[entry.Category]; !seen {
			c.catOrder = append(c.catOrder, entry.Category)
		}
		c.categories[entry.Category] = append(c.categories[entry.Category], entry.ID)
		if entry.Exclusive {
			c.exclusive[entry.Category] = true
		}
	}

	for _, rule := range rules {
		for _, id := range rule.References() {
			if _, exists := c.entries[id]; !exists {
				return nil, &DanglingReferenceError{Rule: rule.Kind(), ID: id}
			}
		}
		c.rules = append(c.rules, rule)
		// Index the rule under every referenced identifier so that
		// conflict lookups hold in both directions without mirrored entries
		for _, id := range rule.References() {
			c.rulesByID[id] = append(c.rulesByID[id], rule)
		}
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Entry returns the entry for the given identifier, or nil if absent
func (c *Catalog) Entry(id string) *SkillEntry {
	return c.entries[id]
}

// HasEntry reports whether the identifier exists in the catalog
func (c *Catalog) HasEntry(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// EntryIDs returns all identifiers in load order
func (c *Catalog) EntryIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Entries returns all entries in load order
func (c *Catalog) Entries() []*SkillEntry {
	entries := make([]*SkillEntry, 0, len(c.order))
	for _, id := range c.order {
		entries = append(entries, c.entries[id])
	}
	return entries
}

// Categories returns all category names in first-seen order
func (c *Catalog) Categories() []string {
	categories := make([]string, len(c.catOrder))
	copy(categories, c.catOrder)
	return categories
}

// CategoryMembers returns the identifiers in a category in load order
func (c *Catalog) CategoryMembers(category string) []string {
	members := make([]string, len(c.categories[category]))
	copy(members, c.categories[category])
	return members
}

// IsExclusive reports whether a category allows at most one selected member
func (c *Catalog) IsExclusive(category string) bool {
	return c.exclusive[category]
}

// Rules returns all relationship rules in declaration order
func (c *Catalog) Rules() []Rule {
	rules := make([]Rule, len(c.rules))
	copy(rules, c.rules)
	return rules
}

// RulesFor returns the rules referencing the given identifier
func (c *Catalog) RulesFor(id string) []Rule {
	rules := make([]Rule, len(c.rulesByID[id]))
	copy(rules, c.rulesByID[id])
	return rules
}

// RequiredCategories returns the categories that must be satisfied by
// any valid selection
func (c *Catalog) RequiredCategories() []string {
	required := make([]string, len(c.required))
	copy(required, c.required)
	return required
}
