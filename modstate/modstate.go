// Package modstate toggles installed mods between enabled and disabled
// without deleting anything. Disabling moves a mod's tracked files into a
// per-mod holding directory under "disabled-mods"; enabling moves them
// back to their original relative paths.
package modstate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const disabledDirName = "disabled-mods"

// sanitizeReplacer maps characters that are unsafe in directory names on
// common filesystems to underscores.
var sanitizeReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
)

// Sanitize converts a mod name into a filesystem-safe directory name.
func Sanitize(name string) string {
	return sanitizeReplacer.Replace(name)
}

// Manager relocates mod files between the live output tree and the
// disabled holding area.
type Manager struct {
	outputDir string
}

func New(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

// DisabledDir returns the root holding directory for inactive mods.
func (m *Manager) DisabledDir() string {
	return filepath.Join(m.outputDir, disabledDirName)
}

// ModDisabledDir returns the holding directory for one mod.
func (m *Manager) ModDisabledDir(name string) string {
	return filepath.Join(m.DisabledDir(), Sanitize(name))
}

// Disable moves the given files (paths relative to the output root) into
// the mod's holding directory, preserving their relative layout. The
// holding directory is created even when every listed file is absent, so
// the mod still shows up in ListDisabled. Files already absent are skipped
// silently so Disable is idempotent.
func (m *Manager) Disable(name string, files []string) error {
	holding := m.ModDisabledDir(name)
	if err := os.MkdirAll(holding, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", holding, err)
	}
	return m.relocate(files, m.outputDir, holding)
}

// Enable moves a mod's files back into the output tree and removes the
// holding directory once it has been emptied.
func (m *Manager) Enable(name string, files []string) error {
	holding := m.ModDisabledDir(name)
	if err := m.relocate(files, holding, m.outputDir); err != nil {
		return err
	}
	removeEmptyTree(holding)
	return nil
}

func (m *Manager) relocate(files []string, fromRoot, toRoot string) error {
	for _, rel := range files {
		src := filepath.Join(fromRoot, filepath.FromSlash(rel))
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		dst := filepath.Join(toRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("moving %s: %w", rel, err)
		}
	}
	return nil
}

// IsEnabled reports whether any of the mod's tracked files is present in
// the live output tree.
func (m *Manager) IsEnabled(files []string) bool {
	for _, rel := range files {
		if _, err := os.Stat(filepath.Join(m.outputDir, filepath.FromSlash(rel))); err == nil {
			return true
		}
	}
	return false
}

// ListDisabled returns the sanitized names of mods currently held in the
// disabled area.
func (m *Manager) ListDisabled() ([]string, error) {
	entries, err := os.ReadDir(m.DisabledDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Cleanup deletes a mod's holding directory and everything in it.
func (m *Manager) Cleanup(name string) error {
	return os.RemoveAll(m.ModDisabledDir(name))
}

// removeEmptyTree prunes directories that contain no files, bottom-up.
func removeEmptyTree(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
}
