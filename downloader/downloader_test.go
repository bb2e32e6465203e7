package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spt-mod-manager/resolve"
)

func TestDownloadWritesFileAndReportsProgress(t *testing.T) {
	body := strings.Repeat("x", 100_000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	out := t.TempDir()
	dd := resolve.DownloadData{
		URL:    server.URL + "/MyMod-1.2.0.zip",
		Output: "MyMod-1.2.0.zip",
		Length: int64(len(body)),
	}

	var total int
	err := Download(context.Background(), server.Client(), dd, out, func(n int) { total += n })
	require.NoError(t, err)

	assert.Equal(t, len(body), total)
	content, err := os.ReadFile(filepath.Join(out, "MyMod-1.2.0.zip"))
	require.NoError(t, err)
	assert.Len(t, content, len(body))
	assert.NoFileExists(t, filepath.Join(out, "MyMod-1.2.0.zip.part"))
}

func TestDownloadPreservesNestedOutputPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	out := t.TempDir()
	dd := resolve.DownloadData{
		URL:    server.URL + "/m.zip",
		Output: "user/mods/m.zip",
	}

	err := Download(context.Background(), server.Client(), dd, out, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(out, "user", "mods", "m.zip"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
	assert.NoFileExists(t, filepath.Join(out, "m.zip"))
}

func TestDownloadRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	out := t.TempDir()
	dd := resolve.DownloadData{URL: server.URL + "/missing.zip", Output: "missing.zip"}

	err := Download(context.Background(), server.Client(), dd, out, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.NoFileExists(t, filepath.Join(out, "missing.zip"))
}

func TestDownloadCancelledContextLeavesNoPartial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("partial"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := t.TempDir()
	dd := resolve.DownloadData{URL: server.URL + "/mod.zip", Output: "mod.zip"}

	err := Download(ctx, server.Client(), dd, out, nil)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(out, "mod.zip"))
	assert.NoFileExists(t, filepath.Join(out, "mod.zip.part"))
}
