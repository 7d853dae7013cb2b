// Package manifest builds the structural description of a compiled
// bundle from its finished document set. Generation is a pure mapping;
// entry-point paths appear only when the corresponding content type is
// non-empty, since an empty declared entry point is a schema violation
// downstream.
package manifest

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/stackgen/stackgen/pkg/compiler"
)

// FileName is the fixed manifest location within a bundle root
const FileName = "plugin.json"

// Entry-point paths declared by generated manifests. These are a fixed
// contract shared with the bundle writer and the schema validator.
const (
	SkillsEntryPoint = "./skills"
	AgentsEntryPoint = "./agents"
	HooksEntryPoint  = "./hooks/hooks.json"
)

// Author identifies the bundle author
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// BundleManifest describes one compiled bundle: identity, metadata, and
// the entry-point paths for each content type present in the bundle
type BundleManifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Author      *Author  `json:"author,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Skills      string   `json:"skills,omitempty"`
	Agents      string   `json:"agents,omitempty"`
	Hooks       string   `json:"hooks,omitempty"`
}

// Metadata is the bundle-level metadata supplied by configuration
type Metadata struct {
	Name        string
	Version     string
	Description string
	Author      *Author
	Keywords    []string
}

// Generate builds a manifest for a finished document set. The manifest
// is regenerated wholesale on each compile, never patched.
func Generate(docs []compiler.CompiledDocument, meta Metadata) BundleManifest {
	m := BundleManifest{
		Name:        meta.Name,
		Version:     meta.Version,
		Description: meta.Description,
		Author:      meta.Author,
		Keywords:    meta.Keywords,
	}

	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		switch {
		case strings.HasPrefix(doc.Path, "skills/"):
			m.Skills = SkillsEntryPoint
		case strings.HasPrefix(doc.Path, "agents/"):
			m.Agents = AgentsEntryPoint
		case doc.Path == "hooks/hooks.json":
			m.Hooks = HooksEntryPoint
		}
	}

	return m
}

// Marshal serializes a manifest with stable formatting for on-disk
// persistence
func Marshal(m BundleManifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize manifest")
	}
	return append(data, '\n'), nil
}

// Parse deserializes a manifest file
func Parse(data []byte) (*BundleManifest, error) {
	var m BundleManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	return &m, nil
}
