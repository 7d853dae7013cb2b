package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []SkillEntry {
	return []SkillEntry{
		{ID: "scss", Category: "styling", Exclusive: true, Description: "SCSS conventions", Content: "# SCSS"},
		{ID: "tailwind", Category: "styling", Exclusive: true, Description: "Tailwind conventions", Content: "# Tailwind"},
		{ID: "react", Category: "framework", Description: "React conventions", Content: "# React"},
		{ID: "zustand", Category: "state", Description: "Zustand conventions", Content: "# Zustand"},
	}
}

func TestBuild(t *testing.T) {
	rules := []Rule{
		Conflict{IDs: []string{"scss", "tailwind"}, Reason: "pick one styling approach"},
		Requires{ID: "zustand", DependsOn: []string{"react"}, Mode: MatchAny},
	}

	cat, err := Build(testEntries(), rules)
	require.NoError(t, err)

	assert.Equal(t, []string{"scss", "tailwind", "react", "zustand"}, cat.EntryIDs())
	assert.Equal(t, []string{"styling", "framework", "state"}, cat.Categories())
	assert.Equal(t, []string{"scss", "tailwind"}, cat.CategoryMembers("styling"))
	assert.True(t, cat.IsExclusive("styling"))
	assert.False(t, cat.IsExclusive("framework"))

	entry := cat.Entry("react")
	require.NotNil(t, entry)
	assert.Equal(t, "framework", entry.Category)
	assert.Nil(t, cat.Entry("vue"))
	assert.True(t, cat.HasEntry("scss"))
	assert.False(t, cat.HasEntry("vue"))
}

func TestBuildRuleIndex(t *testing.T) {
	rules := []Rule{
		Conflict{IDs: []string{"scss", "tailwind"}},
		Requires{ID: "zustand", DependsOn: []string{"react"}, Mode: MatchAny},
	}

	cat, err := Build(testEntries(), rules)
	require.NoError(t, err)

	// Rules are indexed under every referenced id, so conflict lookups
	// work from either side without a mirrored rule
	assert.Len(t, cat.RulesFor("scss"), 1)
	assert.Len(t, cat.RulesFor("tailwind"), 1)
	assert.Len(t, cat.RulesFor("react"), 1)
	assert.Len(t, cat.RulesFor("zustand"), 1)
	assert.Empty(t, cat.RulesFor("vue"))
}

func TestBuildDuplicateIdentifier(t *testing.T) {
	entries := append(testEntries(), SkillEntry{ID: "scss", Category: "styling"})

	_, err := Build(entries, nil)
	require.Error(t, err)

	var dupErr *DuplicateIdentifierError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "scss", dupErr.ID)
}

func TestBuildDanglingReference(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		id   string
	}{
		{"conflict", Conflict{IDs: []string{"scss", "vue"}}, "vue"},
		{"requires trigger", Requires{ID: "svelte", DependsOn: []string{"react"}}, "svelte"},
		{"requires dependency", Requires{ID: "zustand", DependsOn: []string{"vue"}}, "vue"},
		{"recommends", Recommends{When: "react", Suggests: []string{"redux"}}, "redux"},
		{"alternatives", AlternativeGroup{Purpose: "styling", Members: []string{"less"}}, "less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(testEntries(), []Rule{tt.rule})
			require.Error(t, err)

			var danglingErr *DanglingReferenceError
			require.ErrorAs(t, err, &danglingErr)
			assert.Equal(t, tt.id, danglingErr.ID)
		})
	}
}

func TestBuildRequiredCategories(t *testing.T) {
	cat, err := Build(testEntries(), nil, WithRequiredCategories("framework"))
	require.NoError(t, err)

	assert.Equal(t, []string{"framework"}, cat.RequiredCategories())
}

func TestAccessorsReturnCopies(t *testing.T) {
	cat, err := Build(testEntries(), nil)
	require.NoError(t, err)

	ids := cat.EntryIDs()
	ids[0] = "mutated"
	assert.Equal(t, "scss", cat.EntryIDs()[0])

	members := cat.CategoryMembers("styling")
	members[0] = "mutated"
	assert.Equal(t, "scss", cat.CategoryMembers("styling")[0])
}

func TestRuleReferences(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Conflict{IDs: []string{"a", "b"}}.References())
	assert.Equal(t, []string{"a", "b", "c"}, Requires{ID: "a", DependsOn: []string{"b", "c"}}.References())
	assert.Equal(t, []string{"a", "b"}, Recommends{When: "a", Suggests: []string{"b"}}.References())
	assert.Equal(t, []string{"a", "b"}, AlternativeGroup{Members: []string{"a", "b"}}.References())
}
