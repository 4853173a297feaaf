package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchPathSanitizesName(t *testing.T) {
	root := t.TempDir()
	f := NewFetcher(root)

	tests := []struct {
		name     string
		fullName string
		want     string
	}{
		{
			name:     "owner slash repo",
			fullName: "golang/go",
			want:     "golang_go",
		},
		{
			name:     "dots replaced",
			fullName: "user/my-repo.v2",
			want:     "user_my-repo_v2",
		},
		{
			name:     "traversal characters neutralized",
			fullName: "../../etc/passwd",
			want:     "______etc_passwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := f.scratchPath(tt.fullName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, filepath.Base(path))

			absRoot, err := filepath.Abs(root)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(path, absRoot+string(os.PathSeparator)),
				"clone path %q must stay inside %q", path, absRoot)
		})
	}
}

func TestCloneRejectsInvalidURL(t *testing.T) {
	f := NewFetcher(t.TempDir())
	_, err := f.Clone(t.Context(), "https://gitlab.com/owner/repo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repository URL")
}

func TestEnforceSizeCeiling(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.bin"), make([]byte, 2048), 0o644))

	f := NewFetcher(t.TempDir())

	f.MaxRepoBytes = 4096
	assert.NoError(t, f.enforceSizeCeiling(dir))

	f.MaxRepoBytes = 1024
	err := f.enforceSizeCeiling(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository too large")
}

func TestCleanupRemovesClone(t *testing.T) {
	root := t.TempDir()
	clone := filepath.Join(root, "golang_go")
	require.NoError(t, os.MkdirAll(filepath.Join(clone, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(clone, "src", "main.go"), []byte("package main"), 0o644))

	f := NewFetcher(root)
	f.Cleanup(clone)

	_, err := os.Stat(clone)
	assert.True(t, os.IsNotExist(err))

	// Cleanup of an empty path is a no-op.
	f.Cleanup("")
}
