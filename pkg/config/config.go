// Package config loads bundle configuration: bundle metadata, agent
// profile definitions, hook declarations, and the locations of the
// catalog and template sources. Profiles are static configuration and
// read-only during a compile run.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stackgen/stackgen/pkg/compiler"
	"github.com/stackgen/stackgen/pkg/manifest"
)

// FileName is the default bundle configuration file name
const FileName = "stack.yaml"

// Author mirrors the manifest author metadata
type Author struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Profile is the on-disk shape of one agent profile
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Base        string   `yaml:"base"`
	Partials    []string `yaml:"partials"`
	Preload     []string `yaml:"preload"`
	SkillMatch  []string `yaml:"skill_match"`
}

// AgentProfile converts the configuration shape into the compiler's
// profile value
func (p Profile) AgentProfile() compiler.AgentProfile {
	return compiler.AgentProfile{
		Name:        p.Name,
		Description: p.Description,
		Base:        p.Base,
		Partials:    p.Partials,
		Preload:     p.Preload,
		SkillMatch:  p.SkillMatch,
	}
}

// BundleConfig is the full bundle configuration
type BundleConfig struct {
	Name        string             `yaml:"name"`
	Version     string             `yaml:"version"`
	Description string             `yaml:"description"`
	Author      *Author            `yaml:"author"`
	Keywords    []string           `yaml:"keywords"`
	CatalogDir  string             `yaml:"catalog_dir"`
	TemplateDir string             `yaml:"template_dir"`
	Selection   []string           `yaml:"selection"`
	Profiles    []Profile          `yaml:"profiles"`
	Hooks       []compiler.HookDef `yaml:"hooks"`
}

// Load reads and validates a bundle configuration file. Relative
// catalog and template directories resolve against the config file's
// directory.
func Load(path string) (*BundleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid config file %s", path)
	}

	base := filepath.Dir(path)
	if !filepath.IsAbs(cfg.CatalogDir) {
		cfg.CatalogDir = filepath.Join(base, cfg.CatalogDir)
	}
	if !filepath.IsAbs(cfg.TemplateDir) {
		cfg.TemplateDir = filepath.Join(base, cfg.TemplateDir)
	}

	return cfg, nil
}

// Parse parses bundle configuration content and applies defaults
func Parse(data []byte) (*BundleConfig, error) {
	cfg := &BundleConfig{
		CatalogDir:  ".",
		TemplateDir: "templates",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config")
	}

	if cfg.Name == "" {
		return nil, errors.New("bundle name is required")
	}
	if cfg.Version == "" {
		return nil, errors.New("bundle version is required")
	}
	if len(cfg.Profiles) == 0 {
		return nil, errors.New("at least one profile is required")
	}
	for _, profile := range cfg.Profiles {
		if profile.Name == "" {
			return nil, errors.New("profile name is required")
		}
		if profile.Base == "" {
			return nil, errors.Errorf("profile %q has no base template", profile.Name)
		}
	}

	return cfg, nil
}

// AgentProfiles returns the compiler profiles in declaration order
func (c *BundleConfig) AgentProfiles() []compiler.AgentProfile {
	profiles := make([]compiler.AgentProfile, 0, len(c.Profiles))
	for _, profile := range c.Profiles {
		profiles = append(profiles, profile.AgentProfile())
	}
	return profiles
}

// Metadata returns the bundle-level manifest metadata
func (c *BundleConfig) Metadata() manifest.Metadata {
	meta := manifest.Metadata{
		Name:        c.Name,
		Version:     c.Version,
		Description: c.Description,
		Keywords:    c.Keywords,
	}
	if c.Author != nil {
		meta.Author = &manifest.Author{Name: c.Author.Name, Email: c.Author.Email}
	}
	return meta
}

// LoadTemplates reads every template body under dir into an in-memory
// template set keyed by file name without extension. Both .tmpl and .md
// files are accepted.
func LoadTemplates(dir string) (compiler.TemplateSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read template directory %s", dir)
	}

	templates := make(compiler.TemplateSet)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".tmpl" && ext != ".md" {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read template %s", name)
		}
		templates[strings.TrimSuffix(name, ext)] = string(content)
	}

	return templates, nil
}
