// Package downloader fetches release assets over HTTP into the output
// directory, writing through a temporary file so interrupted downloads
// never leave a partial archive behind.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"spt-mod-manager/resolve"
)

const chunkSize = 32 * 1024

// Download fetches dd.URL to dd.Output resolved against outputDir, creating
// intermediate directories as needed. The progress callback, when non-nil,
// receives the byte count of each chunk written.
func Download(ctx context.Context, client *http.Client, dd resolve.DownloadData, outputDir string, progress func(int)) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dd.URL, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", dd.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", dd.Filename(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", dd.Filename(), resp.Status)
	}

	// Output is a slash-separated path relative to the output directory.
	target := filepath.Join(outputDir, filepath.FromSlash(dd.Output))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	partial := target + ".part"

	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("creating %s: %w", partial, err)
	}

	if err := copyChunks(ctx, out, resp.Body, progress); err != nil {
		out.Close()
		os.Remove(partial)
		return fmt.Errorf("writing %s: %w", dd.Filename(), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, target); err != nil {
		return fmt.Errorf("finalizing %s: %w", dd.Filename(), err)
	}
	return os.Chmod(target, 0o644)
}

func copyChunks(ctx context.Context, dst io.Writer, src io.Reader, progress func(int)) error {
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
			if progress != nil {
				progress(n)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
