package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAnalyze(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "# Demo\n\nA demo project.")
	writeFile(t, root, "go.mod", "module example.com/demo\n")
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")
	writeFile(t, root, "pkg/server.go", "package pkg\n")
	writeFile(t, root, "pkg/server_test.go", "package pkg\n")
	writeFile(t, root, "scripts/run.py", "print('hi')\n")
	writeFile(t, root, "docs/guide.md", "# Guide\n")
	writeFile(t, root, ".github/workflows/ci.yml", "on: push\n")
	writeFile(t, root, ".hidden.go", "package hidden\n")

	f := NewFetcher(t.TempDir())
	ev := f.Analyze(root)

	assert.Equal(t, "# Demo\n\nA demo project.", ev.Readme)
	assert.Equal(t, "go_module", ev.RepoType)
	assert.Equal(t, []string{"Python", "Go"}, ev.Languages)
	assert.True(t, ev.HasDocumentation)
	// Hidden files and directories are not counted.
	assert.Equal(t, 7, ev.TotalFiles)

	var names []string
	for _, e := range ev.FileStructure {
		names = append(names, e.Name)
	}
	assert.NotContains(t, names, ".github")
	assert.NotContains(t, names, ".hidden.go")
	assert.Contains(t, names, "docs")
	assert.Contains(t, names, "main.go")

	var paths []string
	for _, s := range ev.CodeSamples {
		paths = append(paths, s.Path)
	}
	// Python outranks Go in sample order, and test files are excluded.
	require.NotEmpty(t, paths)
	assert.Equal(t, "scripts/run.py", paths[0])
	assert.NotContains(t, paths, "pkg/server_test.go")
	assert.NotContains(t, paths, ".hidden.go")
}

func TestExtractCodeSamplesBounds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.go", "")
	writeFile(t, root, "huge.go", strings.Repeat("x", 101*1024))
	writeFile(t, root, "long.go", strings.Repeat("y", 6000))
	for i := 0; i < 8; i++ {
		writeFile(t, root, filepath.Join("src", "file"+string(rune('a'+i))+".go"), "package src\n")
	}

	samples := extractCodeSamples(root, walkTree(root))

	require.Len(t, samples, 5)
	for _, s := range samples {
		assert.NotEqual(t, "empty.go", s.Path)
		assert.NotEqual(t, "huge.go", s.Path)
		assert.LessOrEqual(t, len(s.Content), 2000)
		assert.Equal(t, "go", s.Language)
	}
}

func TestExtractCodeSamplesRuneBoundary(t *testing.T) {
	root := t.TempDir()
	// 1999 single-byte characters followed by two-byte runes straddling
	// the content cap.
	writeFile(t, root, "wide.go", strings.Repeat("a", 1999)+strings.Repeat("é", 200))

	samples := extractCodeSamples(root, walkTree(root))

	require.Len(t, samples, 1)
	assert.True(t, utf8.ValidString(samples[0].Content))
	assert.LessOrEqual(t, len(samples[0].Content), 2000)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "a", truncate("aéz", 2))
	assert.Equal(t, "aé", truncate("aéz", 3))
}

func TestExtractCodeSamplesExcludesTestPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tests/helper.py", "x = 1\n")
	writeFile(t, root, "src/Testing.java", "class Testing {}\n")
	writeFile(t, root, "src/app.py", "x = 2\n")

	samples := extractCodeSamples(root, walkTree(root))

	require.Len(t, samples, 1)
	assert.Equal(t, "src/app.py", samples[0].Path)
}

func TestExtractReadmeVariants(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.rst", "restructured")
	assert.Equal(t, "restructured", extractReadme(root))

	// README.md wins over later variants.
	writeFile(t, root, "README.md", "markdown")
	assert.Equal(t, "markdown", extractReadme(root))

	assert.Equal(t, "", extractReadme(t.TempDir()))
}

func TestExtractReadmeSkipsOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", strings.Repeat("a", maxReadmeBytes+1))
	writeFile(t, root, "README.txt", "fallback")

	assert.Equal(t, "fallback", extractReadme(root))
}

func TestDetectRepoType(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"python", []string{"pyproject.toml"}, "python_package"},
		{"node", []string{"package.json"}, "nodejs_package"},
		{"rust", []string{"Cargo.toml"}, "rust_package"},
		{"go", []string{"go.mod"}, "go_module"},
		{"python wins over node", []string{"setup.py", "package.json"}, "python_package"},
		{"docs", []string{"mkdocs.yml", "docs/index.md"}, "documentation"},
		{"fallback", []string{"Makefile"}, "library"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, root, f, "x")
			}
			assert.Equal(t, tt.want, detectRepoType(root))
		})
	}
}

func TestDetectRepoTypeExamplesName(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "sdk-examples")
	require.NoError(t, os.MkdirAll(root, 0o755))

	assert.Equal(t, "examples", detectRepoType(root))
}
