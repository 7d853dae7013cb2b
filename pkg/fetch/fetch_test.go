package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr bool
	}{
		{"valid", "acme/frontend-stack", false},
		{"valid with dots", "acme/stack.v2", false},
		{"empty", "", true},
		{"no slash", "frontend-stack", true},
		{"empty owner", "/frontend-stack", true},
		{"empty repo", "acme/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.source)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSourceToCacheName(t *testing.T) {
	assert.Equal(t, "acme@frontend-stack", sourceToCacheName("acme/frontend-stack", ""))
	assert.Equal(t, "acme@frontend-stack@v1.2.0", sourceToCacheName("acme/frontend-stack", "v1.2.0"))
}

func TestFetchLocalDirPassthrough(t *testing.T) {
	tmpDir := t.TempDir()
	f, err := NewFetcher(WithCacheDir(filepath.Join(tmpDir, "cache")))
	require.NoError(t, err)

	localDir := filepath.Join(tmpDir, "local-catalog")
	require.NoError(t, os.MkdirAll(localDir, 0o755))

	resolved, err := f.Fetch(context.TODO(), localDir, "")
	require.NoError(t, err)
	assert.Equal(t, localDir, resolved)
}

func TestFetchInvalidSource(t *testing.T) {
	f, err := NewFetcher(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	_, err = f.Fetch(context.TODO(), "not-a-source", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source format")
}

func TestFetchCacheHit(t *testing.T) {
	cacheDir := t.TempDir()
	f, err := NewFetcher(WithCacheDir(cacheDir))
	require.NoError(t, err)

	// A pre-populated cache entry short-circuits the clone entirely
	cachePath := filepath.Join(cacheDir, "acme@frontend-stack@v1.0.0")
	require.NoError(t, os.MkdirAll(cachePath, 0o755))

	resolved, err := f.Fetch(context.TODO(), "acme/frontend-stack", "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, cachePath, resolved)
}

type commandRecord struct {
	name string
	args []string
}

// recordingFetcher swaps the command runner for one that records
// invocations, failing those the matcher rejects
func recordingFetcher(t *testing.T, commands *[]commandRecord, fail func(name string, args []string) bool) *Fetcher {
	t.Helper()
	f, err := NewFetcher(WithCacheDir(t.TempDir()))
	require.NoError(t, err)
	f.run = func(_ context.Context, name string, args ...string) error {
		*commands = append(*commands, commandRecord{name: name, args: args})
		if fail != nil && fail(name, args) {
			return errors.New("fatal: remote branch not found in upstream origin")
		}
		return nil
	}
	return f
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func TestCloneNoRef(t *testing.T) {
	var commands []commandRecord
	f := recordingFetcher(t, &commands, nil)

	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, f.clone(context.TODO(), "acme/frontend-stack", "", dest))

	require.Len(t, commands, 1)
	assert.Equal(t, "gh", commands[0].name)
	assert.True(t, hasArg(commands[0].args, "--depth"))
	assert.False(t, hasArg(commands[0].args, "--branch"))
}

func TestCloneBranchRef(t *testing.T) {
	var commands []commandRecord
	f := recordingFetcher(t, &commands, nil)

	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, f.clone(context.TODO(), "acme/frontend-stack", "v1.2.0", dest))

	// Branches and tags resolve in a single shallow clone
	require.Len(t, commands, 1)
	assert.True(t, hasArg(commands[0].args, "--branch"))
	assert.True(t, hasArg(commands[0].args, "v1.2.0"))
}

func TestCloneCommitRefFallback(t *testing.T) {
	var commands []commandRecord
	f := recordingFetcher(t, &commands, func(_ string, args []string) bool {
		// A commit SHA is not a branch or tag, so the shallow
		// --branch clone is rejected by git
		return hasArg(args, "--branch")
	})

	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, f.clone(context.TODO(), "acme/frontend-stack", "4f2a1bc9", dest))

	require.Len(t, commands, 3)
	assert.True(t, hasArg(commands[0].args, "--branch"))

	assert.Equal(t, "gh", commands[1].name)
	assert.False(t, hasArg(commands[1].args, "--branch"))
	assert.False(t, hasArg(commands[1].args, "--depth"))

	assert.Equal(t, "git", commands[2].name)
	assert.True(t, hasArg(commands[2].args, "checkout"))
	assert.True(t, hasArg(commands[2].args, "--detach"))
	assert.True(t, hasArg(commands[2].args, "4f2a1bc9"))
}

func TestNewFetcherDefaults(t *testing.T) {
	f, err := NewFetcher()
	require.NoError(t, err)
	assert.Contains(t, f.cacheDir, ".stackgen")
	assert.False(t, f.refresh)

	refreshing, err := NewFetcher(WithRefresh(true))
	require.NoError(t, err)
	assert.True(t, refreshing.refresh)
}
