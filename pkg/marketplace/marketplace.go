// Package marketplace aggregates validated bundles into a single
// discoverable catalog index. The publisher refuses to aggregate any
// bundle that has not passed schema validation, keeping "can be
// installed" and "is in the catalog" equivalent guarantees.
package marketplace

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/stackgen/stackgen/pkg/manifest"
	"github.com/stackgen/stackgen/pkg/schema"
)

// FileName is the fixed index location a marketplace is served from
const FileName = "marketplace.json"

// ValidatedBundle pairs a bundle manifest with its resolved source
// location and its schema validation report
type ValidatedBundle struct {
	Manifest manifest.BundleManifest
	// Source is a local path or remote repository coordinate
	Source string
	// Revision optionally pins the source to an exact immutable
	// revision for reproducibility
	Revision string
	Report   *schema.Report
}

// IndexEntry is one bundle reference in the catalog index
type IndexEntry struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Revision    string `json:"revision,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Version     string `json:"version,omitempty"`
}

// CatalogIndex is the aggregate discovery document referencing many
// bundle roots. It is rebuilt fully on each publish run, never diffed.
type CatalogIndex struct {
	Name    string       `json:"name"`
	Owner   string       `json:"owner,omitempty"`
	Plugins []IndexEntry `json:"plugins"`
}

// UnvalidatedBundleError reports an input bundle that has not passed
// schema validation
type UnvalidatedBundleError struct {
	Name string
}

func (e *UnvalidatedBundleError) Error() string {
	return fmt.Sprintf("bundle %q has not passed schema validation", e.Name)
}

// GroupFunc assigns a category to a bundle for catalog grouping
type GroupFunc func(manifest.BundleManifest) string

// Publish builds a catalog index from already-validated bundles. It
// fails fast with UnvalidatedBundleError on the first bundle lacking a
// clean validation report. Entries are sorted by name so repeated runs
// over the same inputs produce identical output.
func Publish(name, owner string, bundles []ValidatedBundle, groupFn GroupFunc) (*CatalogIndex, error) {
	index := &CatalogIndex{
		Name:    name,
		Owner:   owner,
		Plugins: []IndexEntry{},
	}

	for _, bundle := range bundles {
		if bundle.Report == nil || !bundle.Report.Valid() {
			return nil, &UnvalidatedBundleError{Name: bundle.Manifest.Name}
		}

		entry := IndexEntry{
			Name:        bundle.Manifest.Name,
			Source:      bundle.Source,
			Revision:    bundle.Revision,
			Description: bundle.Manifest.Description,
			Version:     bundle.Manifest.Version,
		}
		if groupFn != nil {
			entry.Category = groupFn(bundle.Manifest)
		}

		index.Plugins = append(index.Plugins, entry)
	}

	sort.Slice(index.Plugins, func(i, j int) bool {
		return index.Plugins[i].Name < index.Plugins[j].Name
	})

	return index, nil
}

// Marshal serializes an index with stable formatting
func Marshal(index *CatalogIndex) ([]byte, error) {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize catalog index")
	}
	return append(data, '\n'), nil
}

// Parse deserializes a catalog index file
func Parse(data []byte) (*CatalogIndex, error) {
	var index CatalogIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog index")
	}
	return &index, nil
}
