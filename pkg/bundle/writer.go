// Package bundle persists compiled document sets and their manifest
// into a plugin directory tree. The on-disk layout mirrors the
// manifest's declared entry points exactly: one subdirectory per
// content type, one file per identifier, and the manifest at a fixed
// location in the bundle root.
package bundle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"

	"github.com/stackgen/stackgen/pkg/compiler"
	"github.com/stackgen/stackgen/pkg/manifest"
)

// Writer persists bundles under a root directory
type Writer struct {
	root  string
	force bool
}

// WriterOption configures a Writer
type WriterOption func(*Writer)

// WithForce overwrites an existing bundle tree
func WithForce(force bool) WriterOption {
	return func(w *Writer) {
		w.force = force
	}
}

// NewWriter creates a bundle writer rooted at dir
func NewWriter(root string, opts ...WriterOption) *Writer {
	w := &Writer{root: root}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write persists every compiled document plus the manifest. Existing
// content is refused unless the writer was created with force.
func (w *Writer) Write(docs []compiler.CompiledDocument, m manifest.BundleManifest) error {
	if err := w.checkExisting(); err != nil {
		return err
	}

	for _, doc := range docs {
		path := filepath.Join(w.root, filepath.FromSlash(doc.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for %s", doc.Path)
		}
		if err := os.WriteFile(path, []byte(doc.Content), 0o644); err != nil {
			return errors.Wrapf(err, "failed to write %s", doc.Path)
		}
	}

	data, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	manifestPath := filepath.Join(w.root, manifest.FileName)
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}

	return nil
}

// Check compares a compiled document set against the bundle already on
// disk and returns a unified diff of every drifted file. An empty diff
// means the tree is up to date.
func (w *Writer) Check(docs []compiler.CompiledDocument, m manifest.BundleManifest) (string, error) {
	var diffs []string

	for _, doc := range docs {
		path := filepath.Join(w.root, filepath.FromSlash(doc.Path))
		existing, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				existing = nil
			} else {
				return "", errors.Wrapf(err, "failed to read %s", doc.Path)
			}
		}
		if string(existing) == doc.Content {
			continue
		}
		diffs = append(diffs, udiff.Unified(doc.Path, doc.Path+" (recompiled)", string(existing), doc.Content))
	}

	data, err := manifest.Marshal(m)
	if err != nil {
		return "", err
	}
	manifestPath := filepath.Join(w.root, manifest.FileName)
	existing, err := os.ReadFile(manifestPath)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, "failed to read manifest")
	}
	if string(existing) != string(data) {
		diffs = append(diffs, udiff.Unified(manifest.FileName, manifest.FileName+" (recompiled)", string(existing), string(data)))
	}

	return strings.Join(diffs, "\n"), nil
}

// checkExisting refuses to overwrite a bundle unless force is set
func (w *Writer) checkExisting() error {
	manifestPath := filepath.Join(w.root, manifest.FileName)
	if _, err := os.Stat(manifestPath); err == nil {
		if !w.force {
			return errors.Errorf("bundle already exists at %s (use --force to overwrite)", w.root)
		}
	}
	return nil
}
