package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgen/stackgen/pkg/compiler"
	"github.com/stackgen/stackgen/pkg/manifest"
)

func testDocs() []compiler.CompiledDocument {
	return []compiler.CompiledDocument{
		{Path: "agents/frontend.md", Content: "---\nname: frontend\ndescription: Frontend agent\n---\n\n# frontend\n"},
		{Path: "skills/react/SKILL.md", Content: "---\nname: react\ndescription: React conventions\ncategory: framework\n---\n\n# React\n"},
	}
}

func testManifest() manifest.BundleManifest {
	return manifest.BundleManifest{
		Name:    "frontend-stack",
		Version: "1.0.0",
		Skills:  manifest.SkillsEntryPoint,
		Agents:  manifest.AgentsEntryPoint,
	}
}

func TestWrite(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	require.NoError(t, w.Write(testDocs(), testManifest()))

	agent, err := os.ReadFile(filepath.Join(root, "agents", "frontend.md"))
	require.NoError(t, err)
	assert.Contains(t, string(agent), "# frontend")

	skill, err := os.ReadFile(filepath.Join(root, "skills", "react", "SKILL.md"))
	require.NoError(t, err)
	assert.Contains(t, string(skill), "# React")

	data, err := os.ReadFile(filepath.Join(root, manifest.FileName))
	require.NoError(t, err)
	parsed, err := manifest.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, testManifest(), *parsed)
}

func TestWriteRefusesExistingBundle(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	require.NoError(t, w.Write(testDocs(), testManifest()))

	err := w.Write(testDocs(), testManifest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundle already exists")
}

func TestWriteForce(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, NewWriter(root).Write(testDocs(), testManifest()))

	updated := testDocs()
	updated[0].Content = "---\nname: frontend\ndescription: Updated agent\n---\n\n# frontend v2\n"

	w := NewWriter(root, WithForce(true))
	require.NoError(t, w.Write(updated, testManifest()))

	agent, err := os.ReadFile(filepath.Join(root, "agents", "frontend.md"))
	require.NoError(t, err)
	assert.Contains(t, string(agent), "# frontend v2")
}

func TestCheckUpToDate(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	require.NoError(t, w.Write(testDocs(), testManifest()))

	diff, err := w.Check(testDocs(), testManifest())
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestCheckDrift(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	require.NoError(t, w.Write(testDocs(), testManifest()))

	drifted := testDocs()
	drifted[0].Content = "---\nname: frontend\ndescription: Frontend agent\n---\n\n# frontend updated\n"

	diff, err := w.Check(drifted, testManifest())
	require.NoError(t, err)
	assert.NotEmpty(t, diff)
	assert.Contains(t, diff, "agents/frontend.md")
	assert.Contains(t, diff, "+# frontend updated")
	assert.NotContains(t, diff, "skills/react/SKILL.md")
}

func TestCheckManifestDrift(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	require.NoError(t, w.Write(testDocs(), testManifest()))

	m := testManifest()
	m.Version = "2.0.0"

	diff, err := w.Check(testDocs(), m)
	require.NoError(t, err)
	assert.Contains(t, diff, manifest.FileName)
	assert.Contains(t, diff, `+  "version": "2.0.0"`)
}

func TestCheckMissingTree(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "never-written"))

	diff, err := w.Check(testDocs(), testManifest())
	require.NoError(t, err)
	assert.NotEmpty(t, diff)
}
