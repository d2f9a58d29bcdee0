package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetch errors.
var (
	ErrFetch      = errors.New("fetch failed")
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Fetcher reads the raw bytes of a model or material library.
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FileFetcher reads from the local file system, relative to Root if set.
type FileFetcher struct {
	Root string
}

// Fetch reads the file at p.
func (f FileFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(f.Root, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return data, nil
}

// HTTPFetcher downloads over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher returns an HTTPFetcher whose client times out after timeout.
func NewHTTPFetcher(timeout time.Duration) HTTPFetcher {
	return HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL.
func (f HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: %s", ErrHTTPStatus, rawURL, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrFetch, rawURL, err)
	}
	return data, nil
}

// AutoFetcher uses HTTP for http:// and https:// URLs and the file system otherwise.
type AutoFetcher struct {
	File FileFetcher
	HTTP HTTPFetcher
}

// Fetch dispatches on the scheme of p.
func (f AutoFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if isURL(p) {
		return f.HTTP.Fetch(ctx, p)
	}
	return f.File.Fetch(ctx, p)
}

func isURL(p string) bool {
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// EnsureNewline returns buf terminated by a newline, appending one if needed.
func EnsureNewline(buf []byte) []byte {
	if len(buf) > 0 && buf[len(buf)-1] == '\n' {
		return buf
	}
	out := make([]byte, len(buf)+1)
	copy(out, buf)
	out[len(buf)] = '\n'
	return out
}

// resolve returns the location of ref relative to the model at base.
func resolve(base, ref string) string {
	if isURL(ref) {
		return ref
	}
	if isURL(base) {
		u, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(filepath.ToSlash(ref))
		if err != nil {
			return ref
		}
		return u.ResolveReference(r).String()
	}
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(filepath.Dir(base), ref)
}

// displayName returns the last path element of a file path or URL.
func displayName(p string) string {
	if isURL(p) {
		if u, err := url.Parse(p); err == nil {
			return path.Base(u.Path)
		}
	}
	return filepath.Base(p)
}

// trimBOM strips a UTF-8 byte order mark.
func trimBOM(buf []byte) []byte {
	return bytes.TrimPrefix(buf, []byte("\xef\xbb\xbf"))
}
