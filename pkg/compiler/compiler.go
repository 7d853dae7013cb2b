// Package compiler deterministically merges selected skill content,
// shared prompt partials, and per-agent profile configuration into the
// final bundle documents. Compiling the same (catalog, selection,
// profile) input twice reproduces the output byte for byte.
package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stackgen/stackgen/pkg/catalog"
	"github.com/stackgen/stackgen/pkg/resolver"
)

// TemplateSet holds raw template bodies keyed by identifier. Bodies are
// supplied in memory by a template-source collaborator.
type TemplateSet map[string]string

// AgentProfile is a named target document: a base template, an ordered
// partial list, skills to always include, and the relevance patterns
// mapping selected skills to this agent.
type AgentProfile struct {
	Name        string
	Description string
	Base        string
	Partials    []string
	Preload     []string
	// SkillMatch holds glob patterns matched against a skill's id,
	// category, category/id, and tags. Empty means every selected
	// skill is relevant.
	SkillMatch []string
}

// HookDef is one hook entry emitted into hooks/hooks.json
type HookDef struct {
	Event   string `json:"event"`
	Matcher string `json:"matcher,omitempty"`
	Command string `json:"command"`
}

// CompiledDocument is one output artifact of a compile run. It is never
// mutated; recompilation produces a fresh value for the same path.
type CompiledDocument struct {
	// Path is the target path relative to the bundle root
	Path string
	// Content is the final rendered document
	Content string
	// Sources lists the skill identifiers that contributed content
	Sources []string
}

// Warning records a non-fatal compilation gap, such as an unresolved
// optional placeholder
type Warning struct {
	Agent   string
	Section string
}

func (w Warning) String() string {
	return fmt.Sprintf("agent %s: unresolved section %q replaced with empty content", w.Agent, w.Section)
}

// MissingProfileError reports a profile referencing a base template or
// partial absent from the template set. This is fatal for the bundle:
// it indicates a broken profile definition, not an optional gap.
type MissingProfileError struct {
	Profile string
	Ref     string
}

func (e *MissingProfileError) Error() string {
	return fmt.Sprintf("profile %q references missing template %q", e.Profile, e.Ref)
}

// Compiler renders agent documents from a catalog and a template set
type Compiler struct {
	cat       *catalog.Catalog
	templates TemplateSet
}

// New creates a compiler over a fully built catalog and an in-memory
// template set
func New(cat *catalog.Catalog, templates TemplateSet) *Compiler {
	return &Compiler{cat: cat, templates: templates}
}

// CompileAgent produces the document for one agent profile. Only a
// ValidatedSelection is accepted; callers obtain one from
// resolver.Validate.
func (c *Compiler) CompileAgent(sel *resolver.ValidatedSelection, profile AgentProfile) (*CompiledDocument, []Warning, error) {
	base, ok := c.templates[profile.Base]
	if !ok {
		return nil, nil, &MissingProfileError{Profile: profile.Name, Ref: profile.Base}
	}

	skills, err := c.relevantSkills(sel, profile)
	if err != nil {
		return nil, nil, err
	}

	renderer := newRenderer(profile.Name, skillRefs(skills))

	sections := make(map[string]string, len(profile.Partials)+1)
	for _, partial := range profile.Partials {
		if partial == skillsSection {
			return nil, nil, errors.Errorf("profile %q uses reserved section name %q as a partial", profile.Name, skillsSection)
		}
		body, ok := c.templates[partial]
		if !ok {
			return nil, nil, &MissingProfileError{Profile: profile.Name, Ref: partial}
		}
		rendered, err := renderer.render(partial, body)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to render partial %q for agent %q", partial, profile.Name)
		}
		sections[partial] = rendered
	}
	sections[skillsSection] = renderSkillBlocks(skills)

	body, warnings, err := renderer.renderBase(base, sections)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to render base template %q for agent %q", profile.Base, profile.Name)
	}

	sources := make([]string, 0, len(skills))
	for _, skill := range skills {
		sources = append(sources, skill.ID)
	}

	header, err := agentHeader(profile)
	if err != nil {
		return nil, nil, err
	}

	doc := &CompiledDocument{
		Path:    "agents/" + profile.Name + ".md",
		Content: header + body,
		Sources: sources,
	}

	return doc, warnings, nil
}

// CompileBundle compiles every profile plus the skill subtree and the
// optional hooks file into one document set. Document order is fixed:
// agents in profile order, skills in catalog order, hooks last.
func (c *Compiler) CompileBundle(sel *resolver.ValidatedSelection, profiles []AgentProfile, hooks []HookDef) ([]CompiledDocument, []Warning, error) {
	var docs []CompiledDocument
	var warnings []Warning

	contributing := make(map[string]bool)
	for _, profile := range profiles {
		doc, agentWarnings, err := c.CompileAgent(sel, profile)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, *doc)
		warnings = append(warnings, agentWarnings...)
		for _, id := range doc.Sources {
			contributing[id] = true
		}
	}

	// Catalog load order keeps the skill subtree deterministic
	for _, entry := range c.cat.Entries() {
		if !contributing[entry.ID] {
			continue
		}
		content, err := renderSkillDocument(entry)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, CompiledDocument{
			Path:    "skills/" + entry.ID + "/SKILL.md",
			Content: content,
			Sources: []string{entry.ID},
		})
	}

	if len(hooks) > 0 {
		content, err := renderHooks(hooks)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, CompiledDocument{
			Path:    "hooks/hooks.json",
			Content: content,
		})
	}

	return docs, warnings, nil
}

// relevantSkills merges the profile's preloaded skills with the
// validated selection filtered by the profile's relevance patterns.
// Preloads come first in profile order, then selected skills in
// selection order.
func (c *Compiler) relevantSkills(sel *resolver.ValidatedSelection, profile AgentProfile) ([]*catalog.SkillEntry, error) {
	matchers := make([]glob.Glob, 0, len(profile.SkillMatch))
	for _, pattern := range profile.SkillMatch {
		matcher, err := glob.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid skill match pattern %q in profile %q", pattern, profile.Name)
		}
		matchers = append(matchers, matcher)
	}

	var skills []*catalog.SkillEntry
	seen := make(map[string]bool)

	for _, id := range profile.Preload {
		entry := c.cat.Entry(id)
		if entry == nil {
			return nil, errors.Errorf("profile %q preloads unknown skill %q", profile.Name, id)
		}
		if !seen[id] {
			seen[id] = true
			skills = append(skills, entry)
		}
	}

	for _, id := range sel.IDs() {
		entry := c.cat.Entry(id)
		if entry == nil || seen[id] {
			continue
		}
		if len(matchers) > 0 && !matchesSkill(matchers, entry) {
			continue
		}
		seen[id] = true
		skills = append(skills, entry)
	}

	return skills, nil
}

// skillRefs projects skill entries into the view partial templates see
func skillRefs(skills []*catalog.SkillEntry) []SkillRef {
	refs := make([]SkillRef, 0, len(skills))
	for _, skill := range skills {
		refs = append(refs, SkillRef{
			ID:          skill.ID,
			Category:    skill.Category,
			Description: skill.Description,
		})
	}
	return refs
}

// matchesSkill checks a skill against the profile's glob patterns over
// its id, category, category/id, and tags
func matchesSkill(matchers []glob.Glob, entry *catalog.SkillEntry) bool {
	candidates := make([]string, 0, len(entry.Tags)+3)
	candidates = append(candidates, entry.ID, entry.Category, entry.Category+"/"+entry.ID)
	candidates = append(candidates, entry.Tags...)

	for _, matcher := range matchers {
		for _, candidate := range candidates {
			if matcher.Match(candidate) {
				return true
			}
		}
	}
	return false
}

// agentFrontmatter is the header block shape of a compiled agent
// document. The key names are part of the contract the schema validator
// checks.
type agentFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// skillFrontmatter is the canonical header block shape of a re-emitted
// skill document
type skillFrontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags,omitempty,flow"`
}

// renderFrontmatter serializes a header block through the YAML encoder,
// so values containing colons or quotes survive a reparse
func renderFrontmatter(v any) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize frontmatter")
	}
	return "---\n" + string(data) + "---\n\n", nil
}

// agentHeader renders the frontmatter header every compiled agent
// document carries
func agentHeader(profile AgentProfile) (string, error) {
	return renderFrontmatter(agentFrontmatter{
		Name:        profile.Name,
		Description: profile.Description,
	})
}

// renderSkillBlocks concatenates skill bodies in fixed order under
// per-skill headings
func renderSkillBlocks(skills []*catalog.SkillEntry) string {
	blocks := make([]string, 0, len(skills))
	for _, skill := range skills {
		blocks = append(blocks, fmt.Sprintf("## Skill: %s\n\n%s", skill.ID, strings.TrimRight(skill.Content, "\n")))
	}
	return strings.Join(blocks, "\n\n")
}

// renderSkillDocument re-emits a skill with its canonical frontmatter
// for the bundle's skills subtree
func renderSkillDocument(entry *catalog.SkillEntry) (string, error) {
	header, err := renderFrontmatter(skillFrontmatter{
		Name:        entry.ID,
		Description: entry.Description,
		Category:    entry.Category,
		Tags:        entry.Tags,
	})
	if err != nil {
		return "", err
	}
	return header + strings.TrimRight(entry.Content, "\n") + "\n", nil
}

// renderHooks serializes hook definitions with stable formatting
func renderHooks(hooks []HookDef) (string, error) {
	data, err := json.MarshalIndent(map[string][]HookDef{"hooks": hooks}, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize hooks")
	}
	return string(data) + "\n", nil
}
