package installer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip creates a zip archive at path with the given entries. Names
// ending in "/" become directories.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			_, err := w.Create(name)
			require.NoError(t, err)
			continue
		}
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func TestInstallPluginTree(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "MyMod-1.2.0.zip"), map[string]string{
		"BepInEx/plugins/MyMod/MyMod.dll":   "binary",
		"BepInEx/plugins/MyMod/config.json": "{}",
	})

	inst := New(out, nil)
	report, err := inst.InstallAll()
	require.NoError(t, err)

	require.Len(t, report.Installed, 1)
	assert.Equal(t, "MyMod-1.2.0.zip", report.Installed[0].Archive)
	assert.ElementsMatch(t, []string{
		"BepInEx/plugins/MyMod/MyMod.dll",
		"BepInEx/plugins/MyMod/config.json",
	}, report.Installed[0].Files)
	assert.False(t, report.Failed())
	assert.FileExists(t, filepath.Join(out, "BepInEx", "plugins", "MyMod", "MyMod.dll"))
	assert.FileExists(t, filepath.Join(out, "MODS", "MyMod-1.2.0.zip"))
	assert.NoFileExists(t, filepath.Join(out, "MyMod-1.2.0.zip"))
	assert.NoDirExists(t, filepath.Join(out, ".extract_tmp", "MyMod-1.2.0"))
}

func TestInstallSevenZipArchive(t *testing.T) {
	out := t.TempDir()
	fixture, err := os.ReadFile(filepath.Join("testdata", "SevenLoader-1.0.0.7z"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(out, "SevenLoader-1.0.0.7z"), fixture, 0o644))

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	require.Len(t, report.Installed, 1)
	assert.Equal(t, "SevenLoader-1.0.0.7z", report.Installed[0].Archive)
	assert.ElementsMatch(t, []string{
		"BepInEx/plugins/SevenLoader/SevenLoader.dll",
		"BepInEx/plugins/SevenLoader/config.json",
	}, report.Installed[0].Files)
	assert.FileExists(t, filepath.Join(out, "BepInEx", "plugins", "SevenLoader", "SevenLoader.dll"))
	assert.FileExists(t, filepath.Join(out, "MODS", "SevenLoader-1.0.0.7z"))
}

func TestWrapperFolderCollapse(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "MyMod.zip"), map[string]string{
		"MyMod/BepInEx/plugins/MyMod.dll": "binary",
	})

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	assert.Len(t, report.Installed, 1)
	assert.FileExists(t, filepath.Join(out, "BepInEx", "plugins", "MyMod.dll"))
	// The wrapper folder itself must not leak into the output tree.
	assert.NoDirExists(t, filepath.Join(out, "MyMod"))
}

func TestWrapperWithDifferentNameIsNotCollapsed(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "MyMod.zip"), map[string]string{
		"SomethingElse/BepInEx/plugins/MyMod.dll": "binary",
	})

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	// No recognized subtree at the extraction root, so nothing installs.
	assert.Equal(t, []string{"MyMod.zip"}, report.NoComponents)
	assert.Empty(t, report.Installed)
	assert.NoFileExists(t, filepath.Join(out, "BepInEx", "plugins", "MyMod.dll"))
	// Component-less archives still move to the store.
	assert.FileExists(t, filepath.Join(out, "MODS", "MyMod.zip"))
}

func TestLooseDLLGoesToPlugins(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "TinyMod.zip"), map[string]string{
		"TinyMod.dll": "binary",
		"README.md":   "docs stay behind",
	})

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	require.Len(t, report.Installed, 1)
	assert.Equal(t, []string{"BepInEx/plugins/TinyMod.dll"}, report.Installed[0].Files)
	assert.FileExists(t, filepath.Join(out, "BepInEx", "plugins", "TinyMod.dll"))
	assert.NoFileExists(t, filepath.Join(out, "BepInEx", "plugins", "README.md"))
}

func TestServerModMerge(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "ServerMod.zip"), map[string]string{
		"user/mods/ServerMod/package.json": `{"name":"ServerMod"}`,
		"user/mods/ServerMod/src/mod.js":   "module.exports = {}",
	})

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	assert.Len(t, report.Installed, 1)
	assert.FileExists(t, filepath.Join(out, "user", "mods", "ServerMod", "package.json"))
	assert.FileExists(t, filepath.Join(out, "user", "mods", "ServerMod", "src", "mod.js"))
}

func TestMergeOverwritesExistingFiles(t *testing.T) {
	out := t.TempDir()
	inst := New(out, nil)
	require.NoError(t, inst.EnsureLayout())

	stale := filepath.Join(out, "BepInEx", "plugins", "MyMod.dll")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	writeZip(t, filepath.Join(out, "MyMod.zip"), map[string]string{
		"BepInEx/plugins/MyMod.dll": "new",
	})
	_, err := inst.InstallAll()
	require.NoError(t, err)

	content, err := os.ReadFile(stale)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestCorruptArchiveIsReportedAndLeftInPlace(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "broken.zip"), []byte("not a zip"), 0o644))

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	assert.True(t, report.Failed())
	require.Len(t, report.InstallErrors, 1)
	assert.Equal(t, "broken.zip", report.InstallErrors[0].Archive)
	// Failed archives stay at the top level for the next attempt.
	assert.FileExists(t, filepath.Join(out, "broken.zip"))
	assert.NoFileExists(t, filepath.Join(out, "MODS", "broken.zip"))
}

func TestUnsupportedFilesAreSkipped(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "notes.txt"), []byte("hi"), 0o644))

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	assert.Empty(t, report.Installed)
	assert.Empty(t, report.InstallErrors)
	assert.FileExists(t, filepath.Join(out, "notes.txt"))
}

func TestRestoreFromStoreAndReinstall(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "MyMod.zip"), map[string]string{
		"BepInEx/plugins/MyMod.dll": "binary",
	})

	inst := New(out, nil)
	_, err := inst.InstallAll()
	require.NoError(t, err)
	assert.True(t, inst.InStore("MyMod.zip"))

	// Simulate a wiped install and rebuild it from the store.
	require.NoError(t, os.RemoveAll(filepath.Join(out, "BepInEx")))

	restored, err := inst.RestoreFromStore()
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.FileExists(t, filepath.Join(out, "MyMod.zip"))

	report, err := inst.InstallAll()
	require.NoError(t, err)
	assert.Len(t, report.Installed, 1)
	assert.FileExists(t, filepath.Join(out, "BepInEx", "plugins", "MyMod.dll"))
}

func TestRestoreSkipsArchivesAlreadyPresent(t *testing.T) {
	out := t.TempDir()
	inst := New(out, nil)
	require.NoError(t, inst.EnsureLayout())

	require.NoError(t, os.WriteFile(filepath.Join(out, "MODS", "a.zip"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.zip"), []byte("x"), 0o644))

	restored, err := inst.RestoreFromStore()
	require.NoError(t, err)
	assert.Equal(t, 0, restored)
}

func TestZipSlipEntryIsRejected(t *testing.T) {
	out := t.TempDir()
	writeZip(t, filepath.Join(out, "evil.zip"), map[string]string{
		"../escape.dll": "binary",
	})

	report, err := New(out, nil).InstallAll()
	require.NoError(t, err)

	assert.True(t, report.Failed())
	assert.NoFileExists(t, filepath.Join(filepath.Dir(out), "escape.dll"))
}
