package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgen/stackgen/pkg/config"
)

func TestWatchTargets(t *testing.T) {
	catalogDir := t.TempDir()
	skillsDir := filepath.Join(catalogDir, "skills")
	require.NoError(t, os.MkdirAll(filepath.Join(skillsDir, "react"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(skillsDir, "scss"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillsDir, "notes.md"), []byte("not a skill"), 0o644))
	templateDir := filepath.Join(catalogDir, "templates")
	require.NoError(t, os.MkdirAll(templateDir, 0o755))

	cfg := &config.BundleConfig{CatalogDir: catalogDir, TemplateDir: templateDir}

	dirs := watchTargets(cfg)

	// The catalog root covers catalog.yaml, the skills root covers new
	// skill directories, and each existing skill directory covers edits
	// to its SKILL.md
	assert.Contains(t, dirs, catalogDir)
	assert.Contains(t, dirs, skillsDir)
	assert.Contains(t, dirs, templateDir)
	assert.Contains(t, dirs, filepath.Join(skillsDir, "react"))
	assert.Contains(t, dirs, filepath.Join(skillsDir, "scss"))
	assert.NotContains(t, dirs, filepath.Join(skillsDir, "notes.md"))
}

func TestWatchTargetsMissingSkillsDir(t *testing.T) {
	catalogDir := t.TempDir()
	cfg := &config.BundleConfig{CatalogDir: catalogDir, TemplateDir: filepath.Join(catalogDir, "templates")}

	dirs := watchTargets(cfg)
	assert.Contains(t, dirs, catalogDir)
	assert.Len(t, dirs, 3)
}
