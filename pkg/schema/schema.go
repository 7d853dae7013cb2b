// Package schema validates bundle manifests and the physical layout
// they describe against fixed structural schemas. Validation is
// independent of how a bundle was produced: a hand-written bundle tree
// passes through the same checks as a compiled one.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xeipuuv/gojsonschema"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/stackgen/stackgen/pkg/manifest"
)

//go:embed data/plugin.schema.json data/marketplace.schema.json
var embeddedSchemaFS embed.FS

const (
	pluginSchemaFile      = "data/plugin.schema.json"
	marketplaceSchemaFile = "data/marketplace.schema.json"
)

// Severity classifies a finding. Errors block publication, warnings do
// not.
type Severity string

// Finding severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one structural violation, tagged with the path or field it
// concerns
type Finding struct {
	Severity Severity
	Path     string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Path, f.Message)
}

// Report lists every finding of a validation pass, never just the first
type Report struct {
	findings []Finding
}

func (r *Report) add(severity Severity, path, format string, args ...any) {
	r.findings = append(r.findings, Finding{
		Severity: severity,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Findings returns every finding in discovery order
func (r *Report) Findings() []Finding {
	findings := make([]Finding, len(r.findings))
	copy(findings, r.findings)
	return findings
}

// Errors returns only the blocking findings
func (r *Report) Errors() []Finding {
	var errs []Finding
	for _, f := range r.findings {
		if f.Severity == SeverityError {
			errs = append(errs, f)
		}
	}
	return errs
}

// Warnings returns only the non-blocking findings
func (r *Report) Warnings() []Finding {
	var warnings []Finding
	for _, f := range r.findings {
		if f.Severity == SeverityWarning {
			warnings = append(warnings, f)
		}
	}
	return warnings
}

// Valid reports whether the pass produced zero errors
func (r *Report) Valid() bool {
	return len(r.Errors()) == 0
}

// ValidateManifest checks raw manifest JSON against the bundle manifest
// schema
func ValidateManifest(data []byte) *Report {
	report := &Report{}
	schemaFindings(report, data, pluginSchemaFile, manifest.FileName)
	return report
}

// ValidateIndex checks raw marketplace index JSON against the index
// schema
func ValidateIndex(data []byte) *Report {
	report := &Report{}
	schemaFindings(report, data, marketplaceSchemaFile, "marketplace.json")
	return report
}

// ValidateBundle checks a bundle tree: the manifest against its schema,
// and every declared entry point against the actual layout. Every
// declared entry point must resolve to existing, non-empty content, and
// every content document must carry a header block with a non-empty
// description.
func ValidateBundle(fsys fs.FS) *Report {
	report := &Report{}

	data, err := fs.ReadFile(fsys, manifest.FileName)
	if err != nil {
		report.add(SeverityError, manifest.FileName, "manifest not found in bundle root")
		return report
	}

	schemaFindings(report, data, pluginSchemaFile, manifest.FileName)

	m, err := manifest.Parse(data)
	if err != nil {
		report.add(SeverityError, manifest.FileName, "%v", err)
		return report
	}

	if m.Skills != "" {
		validateSkillTree(report, fsys, m.Skills)
	}
	if m.Agents != "" {
		validateAgentTree(report, fsys, m.Agents)
	}
	if m.Hooks != "" {
		validateHooksFile(report, fsys, m.Hooks)
	}

	checkUndeclaredContent(report, fsys, m)

	return report
}

// schemaFindings runs a gojsonschema validation and records every
// reported violation as an error finding
func schemaFindings(report *Report, data []byte, schemaFile, path string) {
	schemaData, err := embeddedSchemaFS.ReadFile(schemaFile)
	if err != nil {
		report.add(SeverityError, path, "failed to read embedded schema %s: %v", schemaFile, err)
		return
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		report.add(SeverityError, path, "schema validation failed: %v", err)
		return
	}

	for _, desc := range result.Errors() {
		report.add(SeverityError, path, "%s", desc.String())
	}
}

// validateSkillTree checks the declared skills entry point: at least
// one skill document, each non-empty with a described header block
func validateSkillTree(report *Report, fsys fs.FS, entryPoint string) {
	dir := normalizeEntryPoint(entryPoint)

	matches, err := doublestar.Glob(fsys, dir+"/*/SKILL.md")
	if err != nil || len(matches) == 0 {
		report.add(SeverityError, entryPoint, "declared skills entry point has no skill documents")
		return
	}

	for _, path := range matches {
		validateContentDocument(report, fsys, path)
	}
}

// validateAgentTree checks the declared agents entry point
func validateAgentTree(report *Report, fsys fs.FS, entryPoint string) {
	dir := normalizeEntryPoint(entryPoint)

	matches, err := doublestar.Glob(fsys, dir+"/*.md")
	if err != nil || len(matches) == 0 {
		report.add(SeverityError, entryPoint, "declared agents entry point has no agent documents")
		return
	}

	for _, path := range matches {
		validateContentDocument(report, fsys, path)
	}
}

// validateHooksFile checks the declared hooks entry point exists, is
// non-empty, and parses as JSON
func validateHooksFile(report *Report, fsys fs.FS, entryPoint string) {
	path := normalizeEntryPoint(entryPoint)

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		report.add(SeverityError, entryPoint, "declared hooks entry point does not exist")
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		report.add(SeverityError, entryPoint, "declared hooks entry point is empty")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		report.add(SeverityError, entryPoint, "hooks file is not valid JSON: %v", err)
	}
}

// validateContentDocument checks one markdown content document for
// non-empty content and the required header block
func validateContentDocument(report *Report, fsys fs.FS, path string) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		report.add(SeverityError, path, "failed to read document: %v", err)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		report.add(SeverityError, path, "document is empty")
		return
	}

	metaData, err := parseFrontmatter(data)
	if err != nil {
		report.add(SeverityError, path, "failed to parse document header: %v", err)
		return
	}
	if metaData == nil {
		report.add(SeverityError, path, "document has no header block")
		return
	}

	description, _ := metaData["description"].(string)
	if strings.TrimSpace(description) == "" {
		report.add(SeverityError, path, "document header has no description")
	}

	name, _ := metaData["name"].(string)
	if strings.TrimSpace(name) == "" {
		report.add(SeverityWarning, path, "document header has no name")
	}
}

// checkUndeclaredContent warns when content exists in the tree but the
// manifest does not declare its entry point
func checkUndeclaredContent(report *Report, fsys fs.FS, m *manifest.BundleManifest) {
	if m.Skills == "" {
		if matches, err := doublestar.Glob(fsys, "skills/*/SKILL.md"); err == nil && len(matches) > 0 {
			report.add(SeverityWarning, "skills", "bundle contains skill documents but the manifest does not declare them")
		}
	}
	if m.Agents == "" {
		if matches, err := doublestar.Glob(fsys, "agents/*.md"); err == nil && len(matches) > 0 {
			report.add(SeverityWarning, "agents", "bundle contains agent documents but the manifest does not declare them")
		}
	}
	if m.Hooks == "" {
		if _, err := fs.Stat(fsys, "hooks/hooks.json"); err == nil {
			report.add(SeverityWarning, "hooks", "bundle contains a hooks file but the manifest does not declare it")
		}
	}
}

// normalizeEntryPoint strips the leading "./" manifest entry points
// carry so paths resolve against an fs.FS
func normalizeEntryPoint(entryPoint string) string {
	return strings.TrimPrefix(entryPoint, "./")
}

// parseFrontmatter extracts the YAML header block of a markdown
// document, returning nil when the document has none
func parseFrontmatter(content []byte) (map[string]any, error) {
	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, err
	}

	return meta.Get(pctx), nil
}
