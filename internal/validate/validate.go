// Package validate checks built skill directories, preferring an
// external validation script and falling back to structural checks.
package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillforge/skillforge/internal/logging"
)

const scriptTimeout = 30 * time.Second

// Validator runs skill validation. ScriptPath may be empty or point at
// a non-existent file; structural checks are used in that case.
type Validator struct {
	ScriptPath string
}

func New(scriptPath string) *Validator {
	return &Validator{ScriptPath: scriptPath}
}

// Validate reports whether the skill at skillDir passes validation,
// along with a human-readable message. The result is advisory; callers
// decide whether a failed validation stops the pipeline.
func (v *Validator) Validate(ctx context.Context, skillDir string) (bool, string) {
	if v.ScriptPath == "" {
		return v.structural(skillDir)
	}
	if _, err := os.Stat(v.ScriptPath); err != nil {
		logging.Debug("validation script not found, using structural checks", "script", v.ScriptPath)
		return v.structural(skillDir)
	}

	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, v.ScriptPath, skillDir)
	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false, "validation timed out"
	}
	if err != nil {
		return false, fmt.Sprintf("validation failed: %s", strings.TrimSpace(string(out)))
	}
	return true, "skill is valid"
}

// structural performs the fallback checks: SKILL.md exists with name
// and description in its frontmatter, and the optional references and
// assets/templates directories are non-empty when present.
func (v *Validator) structural(skillDir string) (bool, string) {
	var errs []string

	raw, err := os.ReadFile(filepath.Join(skillDir, "SKILL.md"))
	if err != nil {
		errs = append(errs, "SKILL.md not found")
	} else {
		content := string(raw)
		if !strings.HasPrefix(content, "---") {
			errs = append(errs, "SKILL.md missing YAML frontmatter")
		} else {
			head := content
			if len(head) > 500 {
				head = head[:500]
			}
			if !strings.Contains(head, "name:") {
				errs = append(errs, "SKILL.md missing name in frontmatter")
			}
			if !strings.Contains(head, "description:") {
				errs = append(errs, "SKILL.md missing description in frontmatter")
			}
		}
	}

	for _, dir := range []string{"references", filepath.Join("assets", "templates")} {
		entries, err := os.ReadDir(filepath.Join(skillDir, dir))
		if err == nil && len(entries) == 0 {
			errs = append(errs, dir+" directory is empty")
		}
	}

	if len(errs) > 0 {
		return false, "validation errors:\n- " + strings.Join(errs, "\n- ")
	}
	return true, "skill structure is valid (structural checks only)"
}

// QuickCheck reports whether skillDir contains the minimum required
// file.
func QuickCheck(skillDir string) bool {
	_, err := os.Stat(filepath.Join(skillDir, "SKILL.md"))
	return err == nil
}
