// Package fetcher reads county extracts and boundary files from local paths,
// HTTP(S) URLs, and FTP URLs, and parses CSV and XLSX tables.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures the fetchers behind a Router.
type Options struct {
	HTTP HTTPOptions
	FTP  FTPOptions
}

// Router dispatches a location to the HTTP or FTP fetcher by URL scheme and
// opens anything else as a local file.
type Router struct {
	http *HTTPFetcher
	ftp  *FTPFetcher
}

// NewRouter creates a Router with one fetcher per scheme.
func NewRouter(opts Options) *Router {
	return &Router{
		http: NewHTTPFetcher(opts.HTTP),
		ftp:  NewFTPFetcher(opts.FTP),
	}
}

// IsRemote reports whether location is an http, https, or ftp URL.
func IsRemote(location string) bool {
	return scheme(location) != ""
}

func scheme(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	switch s := strings.ToLower(u.Scheme); s {
	case "http", "https", "ftp":
		return s
	}
	return ""
}

// Download opens location for reading.
func (r *Router) Download(ctx context.Context, location string) (io.ReadCloser, error) {
	switch scheme(location) {
	case "http", "https":
		return r.http.Download(ctx, location)
	case "ftp":
		return r.ftp.Download(ctx, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", location)
	}
	return f, nil
}

// DownloadToFile copies location into path.
func (r *Router) DownloadToFile(ctx context.Context, location string, path string) (int64, error) {
	rc, err := r.Download(ctx, location)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck
	return writeFile(path, rc)
}

// ReadAll loads location fully into memory.
func (r *Router) ReadAll(ctx context.Context, location string) ([]byte, error) {
	rc, err := r.Download(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", location)
	}
	return data, nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, r)
	if err != nil {
		return n, eris.Wrap(err, "write file")
	}
	return n, nil
}
