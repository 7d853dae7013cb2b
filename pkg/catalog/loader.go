package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

const (
	skillFileName = "SKILL.md"
	rulesFileName = "catalog.yaml"
	skillsSubdir  = "skills"
)

// skillMetadata is the YAML frontmatter shape of a SKILL.md file.
// The skill's identity is its frontmatter name, computed once here and
// treated as opaque by everything downstream.
type skillMetadata struct {
	Name        string   `mapstructure:"name"`
	Description string   `mapstructure:"description"`
	Category    string   `mapstructure:"category"`
	Exclusive   bool     `mapstructure:"exclusive"`
	Tags        []string `mapstructure:"tags"`
}

// rulesFile is the on-disk shape of catalog.yaml
type rulesFile struct {
	Rules struct {
		Conflicts []struct {
			IDs    []string `yaml:"ids"`
			Reason string   `yaml:"reason"`
		} `yaml:"conflicts"`
		Requires []struct {
			ID        string   `yaml:"id"`
			DependsOn []string `yaml:"depends_on"`
			Mode      string   `yaml:"mode"`
			Reason    string   `yaml:"reason"`
		} `yaml:"requires"`
		Recommends []struct {
			When     string   `yaml:"when"`
			Suggests []string `yaml:"suggests"`
			Reason   string   `yaml:"reason"`
		} `yaml:"recommends"`
		Alternatives []struct {
			Purpose string   `yaml:"purpose"`
			Members []string `yaml:"members"`
		} `yaml:"alternatives"`
	} `yaml:"rules"`
	RequiredCategories []string `yaml:"required_categories"`
}

// LoadDir loads a full catalog from a source directory containing a
// skills/ subtree and an optional catalog.yaml rules file, and builds
// the normalized model.
func LoadDir(root string) (*Catalog, error) {
	entries, err := LoadSkillDir(filepath.Join(root, skillsSubdir))
	if err != nil {
		return nil, err
	}

	var rules []Rule
	var required []string

	rulesPath := filepath.Join(root, rulesFileName)
	if _, err := os.Stat(rulesPath); err == nil {
		rules, required, err = LoadRules(rulesPath)
		if err != nil {
			return nil, err
		}
	}

	return Build(entries, rules, WithRequiredCategories(required...))
}

// LoadSkillDir loads every skills/<id>/SKILL.md under dir. Entries are
// returned in directory order, which os.ReadDir guarantees is sorted,
// so load order is deterministic across runs.
func LoadSkillDir(dir string) ([]SkillEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skills directory %s", dir)
	}

	var skills []SkillEntry
	for _, entry := range dirEntries {
		if !entry.IsDir() {
			continue
		}

		skillPath := filepath.Join(dir, entry.Name(), skillFileName)
		if _, err := os.Stat(skillPath); err != nil {
			continue
		}

		skill, err := LoadSkillFile(skillPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load skill %s", skillPath)
		}

		skills = append(skills, *skill)
	}

	return skills, nil
}

// LoadSkillFile loads a single skill entry from a SKILL.md file
func LoadSkillFile(path string) (*SkillEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	return ParseSkill(content)
}

// ParseSkill parses a skill document (YAML frontmatter + markdown body)
// into a SkillEntry
func ParseSkill(content []byte) (*SkillEntry, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	var skillMeta skillMetadata
	if err := mapstructure.WeakDecode(metaData, &skillMeta); err != nil {
		return nil, errors.Wrap(err, "failed to decode frontmatter")
	}

	if skillMeta.Name == "" {
		return nil, errors.New("skill name is required in frontmatter")
	}
	if skillMeta.Description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}
	if skillMeta.Category == "" {
		return nil, errors.New("skill category is required in frontmatter")
	}

	return &SkillEntry{
		ID:          skillMeta.Name,
		Category:    skillMeta.Category,
		Exclusive:   skillMeta.Exclusive,
		Tags:        skillMeta.Tags,
		Description: skillMeta.Description,
		Content:     extractBodyContent(string(content)),
	}, nil
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}

// LoadRules loads relationship rules and required-category declarations
// from a catalog.yaml file
func LoadRules(path string) ([]Rule, []string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read rules file %s", path)
	}

	return ParseRules(content)
}

// ParseRules parses rules from catalog.yaml content
func ParseRules(content []byte) ([]Rule, []string, error) {
	var file rulesFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse rules file")
	}

	var rules []Rule
	for _, c := range file.Rules.Conflicts {
		rules = append(rules, Conflict{IDs: c.IDs, Reason: c.Reason})
	}
	for _, r := range file.Rules.Requires {
		mode, err := parseMatchMode(r.Mode)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "requires rule for %q", r.ID)
		}
		rules = append(rules, Requires{
			ID:        r.ID,
			DependsOn: r.DependsOn,
			Mode:      mode,
			Reason:    r.Reason,
		})
	}
	for _, r := range file.Rules.Recommends {
		rules = append(rules, Recommends{When: r.When, Suggests: r.Suggests, Reason: r.Reason})
	}
	for _, a := range file.Rules.Alternatives {
		rules = append(rules, AlternativeGroup{Purpose: a.Purpose, Members: a.Members})
	}

	return rules, file.RequiredCategories, nil
}

func parseMatchMode(mode string) (MatchMode, error) {
	switch mode {
	case "", string(MatchAll):
		return MatchAll, nil
	case string(MatchAny):
		return MatchAny, nil
	default:
		return "", errors.Errorf("invalid match mode %q: expected 'all' or 'any'", mode)
	}
}
