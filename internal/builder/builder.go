// Package builder lays a generated skill document out on disk as the
// directory structure the skill format expects.
package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skillforge/skillforge/internal/logging"
	"github.com/skillforge/skillforge/internal/models"
)

// Builder writes skill directories under OutputDir.
type Builder struct {
	OutputDir string
}

func New(outputDir string) *Builder {
	return &Builder{OutputDir: outputDir}
}

// Build materializes doc under OutputDir/<name> and returns the skill
// directory path. An existing directory with the same name is reused;
// files are overwritten in place.
func (b *Builder) Build(doc *models.SkillDocument) (string, error) {
	name := doc.SkillMD.Name()
	if name == "" {
		return "", fmt.Errorf("skill document has no name")
	}

	skillDir := filepath.Join(b.OutputDir, name)
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return "", fmt.Errorf("creating skill directory: %w", err)
	}

	if err := writeSkillMD(skillDir, doc.SkillMD); err != nil {
		return "", err
	}
	if len(doc.References) > 0 {
		if err := writeEntries(filepath.Join(skillDir, "references"), doc.References); err != nil {
			return "", err
		}
	}
	if len(doc.Templates) > 0 {
		if err := writeEntries(filepath.Join(skillDir, "assets", "templates"), doc.Templates); err != nil {
			return "", err
		}
	}

	logging.Debug("skill structure created", "dir", skillDir)
	return skillDir, nil
}

// Cleanup removes a built skill directory. Errors are logged, not
// returned; cleanup is best effort.
func (b *Builder) Cleanup(skillDir string) {
	if skillDir == "" {
		return
	}
	if err := os.RemoveAll(skillDir); err != nil {
		logging.Warn("cleaning up skill directory", "dir", skillDir, "err", err)
	}
}

func writeSkillMD(skillDir string, md models.SkillMD) error {
	frontmatter, err := yaml.Marshal(md.Frontmatter)
	if err != nil {
		return fmt.Errorf("encoding frontmatter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(frontmatter)
	sb.WriteString("---\n\n")
	sb.WriteString(md.Content)

	path := filepath.Join(skillDir, "SKILL.md")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing SKILL.md: %w", err)
	}
	return nil
}

func writeEntries(dir string, entries []models.FileEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, entry := range entries {
		// Generated filenames are untrusted. Keep only the base name so
		// an entry cannot write outside its directory.
		name := filepath.Base(filepath.Clean(entry.Filename))
		if name == "." || name == string(filepath.Separator) {
			return fmt.Errorf("invalid entry filename %q", entry.Filename)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(entry.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// ReadFrontmatter parses the YAML frontmatter out of an existing
// skill directory's SKILL.md. A missing or malformed file yields an
// empty map, not an error.
func ReadFrontmatter(skillDir string) map[string]any {
	raw, err := os.ReadFile(filepath.Join(skillDir, "SKILL.md"))
	if err != nil {
		return map[string]any{}
	}

	content := string(raw)
	if !strings.HasPrefix(content, "---") {
		return map[string]any{}
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return map[string]any{}
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &frontmatter); err != nil {
		logging.Warn("reading skill frontmatter", "dir", skillDir, "err", err)
		return map[string]any{}
	}
	return frontmatter
}
