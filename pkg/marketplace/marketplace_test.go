package marketplace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgen/stackgen/pkg/manifest"
	"github.com/stackgen/stackgen/pkg/schema"
)

func cleanReport(t *testing.T) *schema.Report {
	t.Helper()
	report := schema.ValidateManifest([]byte(`{"name": "frontend-stack", "version": "1.0.0"}`))
	require.True(t, report.Valid())
	return report
}

func failedReport(t *testing.T) *schema.Report {
	t.Helper()
	report := schema.ValidateManifest([]byte(`{"name": "Bad Name"}`))
	require.False(t, report.Valid())
	return report
}

func TestPublish(t *testing.T) {
	report := cleanReport(t)

	bundles := []ValidatedBundle{
		{
			Manifest: manifest.BundleManifest{Name: "testing-stack", Version: "2.0.0", Description: "Testing bundle"},
			Source:   "./testing-stack",
			Report:   report,
		},
		{
			Manifest: manifest.BundleManifest{Name: "frontend-stack", Version: "1.2.0", Description: "Frontend bundle", Keywords: []string{"frontend"}},
			Source:   "acme/frontend-stack",
			Revision: "v1.2.0",
			Report:   report,
		},
	}

	index, err := Publish("team-catalog", "Platform Team", bundles, func(m manifest.BundleManifest) string {
		if len(m.Keywords) > 0 {
			return m.Keywords[0]
		}
		return ""
	})
	require.NoError(t, err)

	assert.Equal(t, "team-catalog", index.Name)
	assert.Equal(t, "Platform Team", index.Owner)
	require.Len(t, index.Plugins, 2)

	// Entries are sorted by name regardless of input order
	assert.Equal(t, "frontend-stack", index.Plugins[0].Name)
	assert.Equal(t, "testing-stack", index.Plugins[1].Name)

	frontend := index.Plugins[0]
	assert.Equal(t, "acme/frontend-stack", frontend.Source)
	assert.Equal(t, "v1.2.0", frontend.Revision)
	assert.Equal(t, "Frontend bundle", frontend.Description)
	assert.Equal(t, "frontend", frontend.Category)
	assert.Equal(t, "1.2.0", frontend.Version)

	assert.Empty(t, index.Plugins[1].Category)
}

func TestPublishRejectsUnvalidatedBundle(t *testing.T) {
	tests := []struct {
		name   string
		report *schema.Report
	}{
		{"nil report", nil},
		{"failed report", failedReport(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundles := []ValidatedBundle{
				{Manifest: manifest.BundleManifest{Name: "frontend-stack"}, Source: "./x", Report: tt.report},
			}

			_, err := Publish("team-catalog", "", bundles, nil)
			require.Error(t, err)

			var unvalidatedErr *UnvalidatedBundleError
			require.ErrorAs(t, err, &unvalidatedErr)
			assert.Equal(t, "frontend-stack", unvalidatedErr.Name)
		})
	}
}

func TestPublishEmpty(t *testing.T) {
	index, err := Publish("team-catalog", "", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, index.Plugins)
	assert.Empty(t, index.Plugins)
}

func TestMarshalRoundTrip(t *testing.T) {
	index, err := Publish("team-catalog", "Platform Team", []ValidatedBundle{
		{
			Manifest: manifest.BundleManifest{Name: "frontend-stack", Version: "1.0.0"},
			Source:   "./frontend-stack",
			Report:   cleanReport(t),
		},
	}, nil)
	require.NoError(t, err)

	data, err := Marshal(index)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	// An empty plugin list serializes as [], never null
	empty, err := Publish("team-catalog", "", nil, nil)
	require.NoError(t, err)
	emptyData, err := Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(emptyData), `"plugins": []`)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, index, parsed)
}

func TestGeneratedIndexPassesSchema(t *testing.T) {
	index, err := Publish("team-catalog", "Platform Team", []ValidatedBundle{
		{
			Manifest: manifest.BundleManifest{Name: "frontend-stack", Version: "1.0.0"},
			Source:   "./frontend-stack",
			Report:   cleanReport(t),
		},
	}, nil)
	require.NoError(t, err)

	data, err := Marshal(index)
	require.NoError(t, err)
	assert.True(t, schema.ValidateIndex(data).Valid())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog index")
}
