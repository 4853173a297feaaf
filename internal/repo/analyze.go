package repo

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
)

const (
	maxReadmeBytes    = 1024 * 1024
	maxSampleBytes    = 100 * 1024
	maxSamples        = 5
	sampleReadWindow  = 5000
	sampleContentChar = 2000
)

var readmeVariants = []string{"README.md", "README.rst", "README.txt", "README"}

// sampleExtensions is ordered: earlier extensions are preferred when
// picking code samples.
var sampleExtensions = []string{".py", ".js", ".java", ".go", ".rs", ".ts", ".tsx"}

var languageNames = map[string]string{
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".java": "Java",
	".go":   "Go",
	".rs":   "Rust",
	".cpp":  "C++",
	".c":    "C",
	".rb":   "Ruby",
	".php":  "PHP",
}

var docIndicators = []string{"docs", "documentation", "wiki", "API.md", "USAGE.md"}

// Analyze performs a read-only traversal of a clone and produces the
// bounded evidence set used for prompting. Every extraction step is
// independently fault-tolerant: a failed read drops that item, never the
// whole analysis.
func (f *Fetcher) Analyze(root string) *models.EvidenceSet {
	walk := walkTree(root)

	return &models.EvidenceSet{
		Readme:           extractReadme(root),
		FileStructure:    topLevelStructure(root),
		CodeSamples:      extractCodeSamples(root, walk),
		RepoType:         detectRepoType(root),
		Languages:        detectLanguages(walk),
		HasDocumentation: hasDocumentation(root),
		TotalFiles:       walk.fileCount,
	}
}

// treeWalk is the result of one pass over the clone's visible files.
// Hidden directories and files are never descended into or counted.
type treeWalk struct {
	byExt     map[string][]string // extension → relative paths, walk order
	extsSeen  map[string]bool
	fileCount int
}

func walkTree(root string) *treeWalk {
	w := &treeWalk{
		byExt:    map[string][]string{},
		extsSeen: map[string]bool{},
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Debug("walking clone", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		w.fileCount++
		ext := filepath.Ext(d.Name())
		if ext != "" {
			w.extsSeen[ext] = true
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr == nil {
			w.byExt[ext] = append(w.byExt[ext], rel)
		}
		return nil
	})
	if err != nil {
		logging.Warn("analyzing repository tree", "err", err)
	}

	return w
}

func extractReadme(root string) string {
	for _, name := range readmeVariants {
		path := filepath.Join(root, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() > maxReadmeBytes {
			logging.Warn("README too large, skipping", "file", name, "bytes", info.Size())
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logging.Warn("reading README", "file", name, "err", err)
			continue
		}
		return string(data)
	}
	return ""
}

// topLevelStructure lists the clone's top-level entries in directory
// order, excluding hidden names. No recursion.
func topLevelStructure(root string) []models.Entry {
	entries, err := os.ReadDir(root)
	if err != nil {
		logging.Warn("listing repository root", "err", err)
		return nil
	}

	var out []models.Entry
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		kind := "file"
		if e.IsDir() {
			kind = "directory"
		} else if ext := filepath.Ext(e.Name()); ext != "" {
			kind = ext
		}
		out = append(out, models.Entry{Name: e.Name(), Kind: kind})
	}
	return out
}

func extractCodeSamples(root string, walk *treeWalk) []models.CodeSample {
	var samples []models.CodeSample

	for _, ext := range sampleExtensions {
		for _, rel := range walk.byExt[ext] {
			if strings.Contains(strings.ToLower(rel), "test") {
				continue
			}

			full := filepath.Join(root, rel)
			info, err := os.Stat(full)
			if err != nil || info.Size() == 0 || info.Size() > maxSampleBytes {
				continue
			}

			content, err := readWindow(full, sampleReadWindow)
			if err != nil {
				continue
			}
			content = truncate(content, sampleContentChar)

			samples = append(samples, models.CodeSample{
				Path:     filepath.ToSlash(rel),
				Language: strings.TrimPrefix(ext, "."),
				Content:  content,
			})
			if len(samples) >= maxSamples {
				return samples
			}
		}
	}
	return samples
}

// truncate caps s at n bytes, backing off to a rune boundary so a
// sample never ends in a split multi-byte character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func readWindow(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	return string(buf[:read]), nil
}

func detectRepoType(root string) string {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(root, name))
		return err == nil
	}

	switch {
	case exists("setup.py") || exists("pyproject.toml"):
		return "python_package"
	case exists("package.json"):
		return "nodejs_package"
	case exists("Cargo.toml"):
		return "rust_package"
	case exists("go.mod"):
		return "go_module"
	}

	if matches, _ := filepath.Glob(filepath.Join(root, "*.xcodeproj")); len(matches) > 0 {
		return "ios_framework"
	}
	if matches, _ := filepath.Glob(filepath.Join(root, "*.framework")); len(matches) > 0 {
		return "ios_framework"
	}

	if exists("docs") && exists("mkdocs.yml") {
		return "documentation"
	}

	name := strings.ToLower(filepath.Base(root))
	if strings.Contains(name, "example") || strings.Contains(name, "sample") {
		return "examples"
	}

	return "library"
}

func detectLanguages(walk *treeWalk) []string {
	var out []string
	// Fixed iteration order keeps the evidence set deterministic.
	for _, ext := range []string{".py", ".js", ".ts", ".java", ".go", ".rs", ".cpp", ".c", ".rb", ".php"} {
		if walk.extsSeen[ext] {
			out = append(out, languageNames[ext])
		}
	}
	return out
}

func hasDocumentation(root string) bool {
	for _, name := range docIndicators {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return true
		}
	}
	return false
}
