// Package installer unpacks downloaded mod archives into an SPT directory.
//
// Inside the output root it owns three on-disk conventions with stable
// names so repeated runs interoperate: a hidden scratch root for
// extraction (".extract_tmp"), a persistent archive store ("MODS"), and
// the merged layout itself ("BepInEx/plugins" and "user/mods").
package installer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	scratchDirName = ".extract_tmp"
	storeDirName   = "MODS"
	bepinexDirName = "BepInEx"
	userDirName    = "user"
)

// errNoComponents marks an archive whose layout matched nothing we know how
// to install. It is a soft signal, not a failure: the archive may be
// metadata-only or use an unrecognized packaging convention.
var errNoComponents = errors.New("no mod components found to install")

// ArchiveError records a failure for one archive.
type ArchiveError struct {
	Archive string
	Err     error
}

func (e ArchiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Archive, e.Err)
}

// InstalledArchive records one successfully installed archive and the
// output-relative paths of every file it contributed. The file list is
// what later enables disabling a mod without deleting it.
type InstalledArchive struct {
	Archive string
	Files   []string
}

// Report accumulates per-archive outcomes for one installation batch.
// Install errors fail the batch; move errors and component-less archives
// do not.
type Report struct {
	Installed     []InstalledArchive
	NoComponents  []string
	InstallErrors []ArchiveError
	MoveErrors    []ArchiveError
}

// Failed reports whether any archive failed to extract or merge.
func (r *Report) Failed() bool {
	return len(r.InstallErrors) > 0
}

// Installer installs mod archives into one output root. Archives are
// always processed sequentially: two merges into the shared BepInEx and
// user subtrees must never run concurrently.
type Installer struct {
	outputDir string
	log       *zap.SugaredLogger
}

func New(outputDir string, log *zap.SugaredLogger) *Installer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Installer{outputDir: outputDir, log: log}
}

func (i *Installer) storeDir() string   { return filepath.Join(i.outputDir, storeDirName) }
func (i *Installer) scratchDir() string { return filepath.Join(i.outputDir, scratchDirName) }
func (i *Installer) pluginsDir() string {
	return filepath.Join(i.outputDir, bepinexDirName, "plugins")
}

// EnsureLayout creates the directory contract inside the output root.
func (i *Installer) EnsureLayout() error {
	for _, dir := range []string{
		i.outputDir,
		i.pluginsDir(),
		filepath.Join(i.outputDir, userDirName, "mods"),
		i.storeDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

func isSupportedArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip", ".7z":
		return true
	default:
		return false
	}
}

func archiveStem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// InstallAll processes every supported archive sitting at the top level of
// the output root: extract to scratch, normalize the layout, merge into
// the output tree, then relocate the archive into the store. Failures are
// collected per archive and never abort the rest of the batch. Files with
// unsupported extensions are skipped silently.
func (i *Installer) InstallAll() (*Report, error) {
	if err := i.EnsureLayout(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(i.outputDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	report := &Report{}
	for _, entry := range entries {
		if entry.IsDir() || !isSupportedArchive(entry.Name()) {
			continue
		}
		path := filepath.Join(i.outputDir, entry.Name())

		files, err := i.installArchive(path)
		if err != nil {
			if errors.Is(err, errNoComponents) {
				i.log.Debugw("archive had no installable components",
					zap.String("archive", entry.Name()),
				)
				report.NoComponents = append(report.NoComponents, entry.Name())
			} else {
				i.log.Warnw("archive installation failed",
					zap.String("archive", entry.Name()),
					zap.Error(err),
				)
				report.InstallErrors = append(report.InstallErrors, ArchiveError{entry.Name(), err})
				continue
			}
		} else {
			report.Installed = append(report.Installed, InstalledArchive{Archive: entry.Name(), Files: files})
		}

		// Installed (or soft-skipped) archives move to the store so the
		// next run does not reprocess them. A failed move degrades to
		// "installed but left in place".
		if err := i.moveToStore(path); err != nil {
			i.log.Warnw("could not move archive to store",
				zap.String("archive", entry.Name()),
				zap.Error(err),
			)
			report.MoveErrors = append(report.MoveErrors, ArchiveError{entry.Name(), err})
		}
	}
	return report, nil
}

// installArchive runs one archive through extract, normalize and merge,
// returning the output-relative paths of the files it installed. The
// scratch directory is removed afterwards except when extraction itself
// failed.
func (i *Installer) installArchive(path string) ([]string, error) {
	scratch := filepath.Join(i.scratchDir(), archiveStem(path))

	// A clean scratch guarantees idempotence under retry.
	if err := os.RemoveAll(scratch); err != nil {
		return nil, fmt.Errorf("cleaning scratch directory: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	i.log.Infow("extracting archive",
		zap.String("archive", filepath.Base(path)),
		zap.String("scratch", scratch),
	)
	if err := extract(path, scratch); err != nil {
		return nil, fmt.Errorf("extracting: %w", err)
	}
	defer os.RemoveAll(scratch)

	normalizeTree(scratch)

	files, err := i.merge(scratch, archiveStem(path))
	if err != nil {
		return nil, fmt.Errorf("merging: %w", err)
	}
	if len(files) == 0 {
		return nil, errNoComponents
	}
	i.log.Infow("installed mod files",
		zap.String("archive", filepath.Base(path)),
		zap.Int("files", len(files)),
	)
	return files, nil
}

// merge copies recognized subtrees from the extracted archive into the
// output root and returns the relative paths of every installed file.
func (i *Installer) merge(scratch, stem string) ([]string, error) {
	root := i.collapseWrapper(scratch, stem)
	var files []string

	// Known subtrees merge over the output root, overwriting files.
	for _, name := range []string{bepinexDirName, userDirName} {
		src := filepath.Join(root, name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		copied, err := copyDir(src, filepath.Join(i.outputDir, name), name)
		if err != nil {
			return files, err
		}
		files = append(files, copied...)
	}

	// Loose plugin binaries at the normalized root land in BepInEx/plugins.
	relocated, err := i.relocatePlugins(root)
	if err != nil {
		return files, err
	}
	return append(files, relocated...), nil
}

// collapseWrapper undoes the "archive contains one folder named after
// itself" packaging pattern. The heuristic is deliberately narrow: only a
// single directory whose name equals the archive stem collapses; any
// other shape is treated as top-level content as-is.
func (i *Installer) collapseWrapper(scratch, stem string) string {
	entries, err := os.ReadDir(scratch)
	if err != nil || len(entries) != 1 {
		return scratch
	}
	entry := entries[0]
	if !entry.IsDir() || entry.Name() != stem {
		return scratch
	}
	i.log.Debugw("collapsed wrapper folder", zap.String("wrapper", entry.Name()))
	return filepath.Join(scratch, entry.Name())
}

func (i *Installer) relocatePlugins(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".dll") {
			continue
		}
		if err := os.MkdirAll(i.pluginsDir(), 0o755); err != nil {
			return files, err
		}
		target := filepath.Join(i.pluginsDir(), entry.Name())
		if err := copyFile(filepath.Join(root, entry.Name()), target); err != nil {
			return files, err
		}
		files = append(files, path.Join(bepinexDirName, "plugins", entry.Name()))
	}
	return files, nil
}

// moveToStore relocates a processed archive into the store, replacing any
// same-named archive already there. When rename fails (e.g. across
// filesystems) it falls back to copy-then-delete.
func (i *Installer) moveToStore(path string) error {
	target := filepath.Join(i.storeDir(), filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		_ = os.Remove(target)
	}
	if err := os.Rename(path, target); err == nil {
		return nil
	}
	if err := copyFile(path, target); err != nil {
		return err
	}
	return os.Remove(path)
}

// RestoreFromStore copies archives present in the store but absent from
// the output root back for reprocessing. This supports reinstalling from
// cache without re-downloading.
func (i *Installer) RestoreFromStore() (int, error) {
	entries, err := os.ReadDir(i.storeDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	restored := 0
	for _, entry := range entries {
		if entry.IsDir() || !isSupportedArchive(entry.Name()) {
			continue
		}
		target := filepath.Join(i.outputDir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		i.log.Infow("restoring archive from store", zap.String("archive", entry.Name()))
		if err := copyFile(filepath.Join(i.storeDir(), entry.Name()), target); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}

// InStore reports whether an archive with this filename has already been
// processed into the store.
func (i *Installer) InStore(filename string) bool {
	_, err := os.Stat(filepath.Join(i.storeDir(), filename))
	return err == nil
}

// copyDir recursively copies src over dst, overwriting existing files,
// and returns the copied file paths prefixed with rel (slash-separated).
// Copying (not moving) keeps the scratch tree disposable.
func copyDir(src, dst, rel string) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		entryRel := path.Join(rel, entry.Name())
		if entry.IsDir() {
			copied, err := copyDir(srcPath, dstPath, entryRel)
			if err != nil {
				return files, err
			}
			files = append(files, copied...)
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return files, err
			}
			files = append(files, entryRel)
		}
	}
	return files, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, 0o644)
}

// normalizeTree resets permissions across a tree to a predictable mode:
// archives carry arbitrary permission bits that would otherwise leak into
// the install.
func normalizeTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = os.Chmod(path, 0o755)
		} else {
			_ = os.Chmod(path, 0o644)
		}
		return nil
	})
}
