// Package packager produces distributable zip archives from built
// skill directories and manages installation into the local skills
// directory.
package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skillforge/skillforge/internal/logging"
)

// Packager archives skills into OutputDir and installs them under
// InstallDir.
type Packager struct {
	OutputDir  string
	InstallDir string
}

func New(outputDir, installDir string) *Packager {
	return &Packager{OutputDir: outputDir, InstallDir: installDir}
}

// Package writes OutputDir/<name>.zip for the skill at skillDir,
// replacing any previous archive, and returns the zip path. Archive
// entry names are rooted at the skill directory name so the archive
// unpacks into a single folder.
func (p *Packager) Package(skillDir string) (string, error) {
	skillName := filepath.Base(skillDir)
	zipPath := p.ZipPath(skillName)

	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("removing stale archive: %w", err)
	}

	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	root := filepath.Dir(skillDir)

	err = filepath.WalkDir(skillDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		os.Remove(zipPath)
		return "", fmt.Errorf("packaging skill: %w", err)
	}
	if err := zw.Close(); err != nil {
		os.Remove(zipPath)
		return "", fmt.Errorf("finalizing archive: %w", err)
	}

	logging.Debug("skill packaged", "zip", zipPath)
	return zipPath, nil
}

// Install copies the skill at skillDir into InstallDir, replacing any
// existing installation of the same name.
func (p *Packager) Install(skillDir string) (string, error) {
	skillName := filepath.Base(skillDir)
	installPath := filepath.Join(p.InstallDir, skillName)

	if err := os.MkdirAll(p.InstallDir, 0o755); err != nil {
		return "", fmt.Errorf("creating install directory: %w", err)
	}
	if _, err := os.Stat(installPath); err == nil {
		logging.Debug("removing existing installation", "path", installPath)
		if err := os.RemoveAll(installPath); err != nil {
			return "", fmt.Errorf("removing existing installation: %w", err)
		}
	}
	if err := copyDir(skillDir, installPath); err != nil {
		return "", fmt.Errorf("installing skill: %w", err)
	}
	return installPath, nil
}

// Uninstall removes an installed skill by name.
func (p *Packager) Uninstall(skillName string) error {
	installPath := filepath.Join(p.InstallDir, skillName)
	if _, err := os.Stat(installPath); err != nil {
		return fmt.Errorf("skill %q is not installed", skillName)
	}
	if err := os.RemoveAll(installPath); err != nil {
		return fmt.Errorf("uninstalling skill: %w", err)
	}
	return nil
}

// IsInstalled reports whether a skill of the given name is installed
// with its SKILL.md present.
func (p *Packager) IsInstalled(skillName string) bool {
	_, err := os.Stat(filepath.Join(p.InstallDir, skillName, "SKILL.md"))
	return err == nil
}

// ZipPath returns where Package places the archive for a skill name.
func (p *Packager) ZipPath(skillName string) string {
	return filepath.Join(p.OutputDir, skillName+".zip")
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
