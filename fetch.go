package lottietex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProgressFunc receives the bytes read so far and the expected total
// (0 when unknown).
type ProgressFunc func(loaded int64, total int64)

type FetchOptions struct {
	WithCredentials bool
}

type Fetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions, progress ProgressFunc) ([]byte, error)
}

type FetcherFunc func(ctx context.Context, url string, opts FetchOptions, progress ProgressFunc) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, opts FetchOptions, progress ProgressFunc) ([]byte, error) {
	return f(ctx, url, opts, progress)
}

// StatusError is returned for HTTP responses with a 4xx or 5xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

const DefaultFetchTimeout = 30 * time.Second

// HTTPFetcher fetches over HTTP(S). Credentials is applied only to requests
// made with FetchOptions.WithCredentials.
type HTTPFetcher struct {
	Client      *http.Client
	Header      http.Header
	Credentials func(req *http.Request)
}

func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: DefaultFetchTimeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts FetchOptions, progress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, values := range f.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if opts.WithCredentials && f.Credentials != nil {
		f.Credentials(req)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	return readWithProgress(resp.Body, total, progress)
}

// FileFetcher reads from the local filesystem. Relative paths resolve
// against Root; file:// URLs are accepted.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) Fetch(ctx context.Context, rawURL string, opts FetchOptions, progress ProgressFunc) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := rawURL
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("bad file url: %w", err)
		}
		name = u.Path
	}
	if !filepath.IsAbs(name) && f.Root != "" {
		name = filepath.Join(f.Root, name)
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var total int64
	if info, err := file.Stat(); err == nil {
		total = info.Size()
	}
	return readWithProgress(file, total, progress)
}

// SchemeFetcher routes http(s) URLs to HTTP and everything else to Files.
type SchemeFetcher struct {
	HTTP  Fetcher
	Files Fetcher
}

func (f SchemeFetcher) Fetch(ctx context.Context, rawURL string, opts FetchOptions, progress ProgressFunc) ([]byte, error) {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return f.HTTP.Fetch(ctx, rawURL, opts, progress)
	}
	return f.Files.Fetch(ctx, rawURL, opts, progress)
}

const progressChunk = 32 * 1024

func readWithProgress(r io.Reader, total int64, progress ProgressFunc) ([]byte, error) {
	out := make([]byte, 0, max(total, 0))
	buf := make([]byte, progressChunk)
	var loaded int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			loaded += int64(n)
			if progress != nil {
				progress(loaded, total)
			}
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
	}
}

// resolveURL joins a relative reference onto the loader's base path.
// Absolute URLs and rooted paths are returned unchanged.
func resolveURL(base string, ref string) string {
	if base == "" {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		if b, err := url.Parse(base); err == nil && b.Scheme != "" && b.Host != "" {
			return b.ResolveReference(&url.URL{Path: ref}).String()
		}
		return ref
	}
	if b, err := url.Parse(base); err == nil && b.Scheme != "" && b.Host != "" {
		if !strings.HasSuffix(b.Path, "/") {
			b.Path += "/"
		}
		if r, err := url.Parse(ref); err == nil {
			return b.ResolveReference(r).String()
		}
	}
	if strings.HasSuffix(base, "/") {
		return base + ref
	}
	return base + "/" + ref
}
