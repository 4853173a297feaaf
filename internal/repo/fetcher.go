package repo

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/skillforge/skillforge/internal/github"
	"github.com/skillforge/skillforge/internal/logging"
)

// DefaultMaxRepoBytes is the hard ceiling on a clone's cumulative file
// size. Exceeding it discards the clone; it is not a retry condition.
const DefaultMaxRepoBytes = 500 * 1024 * 1024

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Fetcher clones repositories into a scratch root and owns each clone's
// lifetime from Clone to Cleanup.
type Fetcher struct {
	ScratchRoot  string
	MaxRepoBytes int64
}

func NewFetcher(scratchRoot string) *Fetcher {
	return &Fetcher{
		ScratchRoot:  scratchRoot,
		MaxRepoBytes: DefaultMaxRepoBytes,
	}
}

// Clone shallow-clones the repository at rawURL and returns the clone
// path. The URL is re-validated even if the caller already did so, and the
// derived directory is verified to sit inside the scratch root before any
// filesystem mutation.
func (f *Fetcher) Clone(ctx context.Context, rawURL string) (string, error) {
	loc, err := github.ParseLocator(rawURL)
	if err != nil {
		return "", err
	}

	path, err := f.scratchPath(loc.FullName)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(f.ScratchRoot, 0o755); err != nil {
		return "", fmt.Errorf("creating scratch root: %w", err)
	}

	// A stale clone from an earlier run may still be present.
	if err := os.RemoveAll(path); err != nil {
		return "", fmt.Errorf("removing existing clone: %w", err)
	}

	cmd := exec.CommandContext(ctx, "git", "clone",
		"--depth", "1", "--single-branch", "--no-recurse-submodules",
		loc.URL, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(path)
		return "", fmt.Errorf("cloning %s: %v (%s)", loc.FullName, err, strings.TrimSpace(string(out)))
	}

	if err := f.enforceSizeCeiling(path); err != nil {
		_ = os.RemoveAll(path)
		return "", err
	}

	return path, nil
}

// Cleanup removes a clone directory. It must be called exactly once per
// successful clone, on every downstream exit path.
func (f *Fetcher) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		logging.Warn("cleaning up clone", "path", path, "err", err)
	}
}

// scratchPath derives the clone directory for a repository and verifies it
// cannot escape the scratch root.
func (f *Fetcher) scratchPath(fullName string) (string, error) {
	safeName := unsafeChars.ReplaceAllString(fullName, "_")

	path, err := securejoin.SecureJoin(f.ScratchRoot, safeName)
	if err != nil {
		return "", fmt.Errorf("resolving clone path: %w", err)
	}

	absRoot, err := filepath.Abs(f.ScratchRoot)
	if err != nil {
		return "", fmt.Errorf("resolving scratch root: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving clone path: %w", err)
	}
	if !strings.HasPrefix(absPath, absRoot+string(os.PathSeparator)) {
		// Distinct from ordinary I/O failures: a derived path outside the
		// scratch root means the sanitizer was defeated. Hard stop.
		logging.Error("clone path escapes scratch root", "path", absPath, "root", absRoot)
		return "", fmt.Errorf("security: clone path %q escapes scratch root", absPath)
	}

	return absPath, nil
}

func (f *Fetcher) enforceSizeCeiling(path string) error {
	size, err := dirSize(path)
	if err != nil {
		return fmt.Errorf("sizing clone: %w", err)
	}
	if size > f.MaxRepoBytes {
		return fmt.Errorf("repository too large: %.2f MB exceeds %.0f MB ceiling",
			float64(size)/1024/1024, float64(f.MaxRepoBytes)/1024/1024)
	}
	return nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
