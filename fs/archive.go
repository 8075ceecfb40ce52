// Package fs provides file-based storage of fetched listing pages.
package fs

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/AbhigyanVE/carspect"
)

// Archive stores raw fetched HTML on disk, one file per URL. Useful for
// debugging rule extraction against the exact markup a site served.
type Archive struct {
	baseDir string
}

// NewArchive creates an Archive rooted at baseDir.
func NewArchive(baseDir string) *Archive {
	return &Archive{baseDir: baseDir}
}

// Save writes the HTML for rawURL below the archive root. The file is
// written to a temporary name first and renamed into place, so readers never
// observe a partially written page.
func (a *Archive) Save(ctx context.Context, rawURL, html string) error {
	relPath, err := URLToPath(rawURL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(a.baseDir, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(html), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, fullPath)
}

// URLToPath converts a listing URL to a relative file path.
// Example: https://cars.example.com/listing/bmw-x5 → cars.example.com/listing/bmw-x5.html
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", carspect.Errorf(carspect.EINVALID, "URL %q has no host", rawURL)
	}

	path := u.Path

	// Root or trailing slash → index.html
	if path == "" || path == "/" {
		return filepath.Join(u.Host, "index.html"), nil
	}

	path = strings.TrimPrefix(path, "/")

	if strings.HasSuffix(path, "/") {
		return filepath.Join(u.Host, path, "index.html"), nil
	}

	return filepath.Join(u.Host, path+".html"), nil
}

// Ensure ArchivingFetcher implements carspect.Fetcher at compile time.
var _ carspect.Fetcher = (*ArchivingFetcher)(nil)

// ArchivingFetcher wraps a Fetcher and saves every successfully fetched page
// to an Archive. Archive failures are logged, not returned: a lost snapshot
// never fails an extraction.
type ArchivingFetcher struct {
	next    carspect.Fetcher
	archive *Archive
	logger  *slog.Logger
}

// NewArchivingFetcher creates a new ArchivingFetcher.
func NewArchivingFetcher(next carspect.Fetcher, archive *Archive, logger *slog.Logger) *ArchivingFetcher {
	return &ArchivingFetcher{next: next, archive: archive, logger: logger}
}

// Fetch delegates to the wrapped fetcher and archives the result.
func (f *ArchivingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := f.archive.Save(ctx, url, html); err != nil {
		f.logger.Warn("page archive failed", "url", url, "err", err)
	}
	return html, nil
}

// Close delegates to the wrapped fetcher.
func (f *ArchivingFetcher) Close() error {
	return f.next.Close()
}
