package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	pbhttp "github.com/ligustah/placebounds/internal/http"
)

// ErrDownloadFailed matches every error returned by Fetch after all
// attempts were used.
var ErrDownloadFailed = errors.New("download failed")

// ErrArchiveTooSmall is an attempt failure for a body at or below the
// minimum archive size, usually an error page served with status 200.
var ErrArchiveTooSmall = errors.New("archive below minimum size")

// DownloadError is returned when every download attempt failed.
//
// Use errors.As to inspect Attempts and the last attempt's error.
type DownloadError struct {
	Code     string // FIPS code of the region
	Attempts int    // Number of attempts made
	Err      error  // Error of the last attempt
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s failed after %d attempts: %v", e.Code, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() []error {
	return []error{ErrDownloadFailed, e.Err}
}

// Options configures the fetcher.
type Options struct {
	// CacheDir holds one archive per region.
	CacheDir string

	// URLTemplate is the archive URL with a {code} placeholder.
	URLTemplate string

	// MinSize is the size an archive must exceed to be considered valid.
	MinSize int64

	// ChunkSize is the buffer size used when streaming to disk.
	ChunkSize int

	// Attempts is the maximum number of download attempts.
	Attempts int

	// Backoff returns the delay after a failed attempt.
	Backoff pbhttp.Backoff

	// OnRetry is called after each failed attempt, before waiting.
	OnRetry func(attempt int, delay time.Duration, err error)

	// OnDownload is called after a successful download with its size.
	OnDownload func(size int64)

	// Logger receives debug diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// Fetcher resolves a region code to a local archive, downloading it when
// the cache does not hold a valid copy.
type Fetcher struct {
	client *pbhttp.Client
	opts   Options
}

// New creates a fetcher that downloads with client.
func New(client *pbhttp.Client, opts Options) *Fetcher {
	if opts.MinSize < 0 {
		opts.MinSize = 0
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 8 * 1024
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff == nil {
		opts.Backoff = pbhttp.LinearBackoff(5 * time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Fetcher{client: client, opts: opts}
}

// URL returns the remote archive location for code.
func (f *Fetcher) URL(code string) string {
	return strings.ReplaceAll(f.opts.URLTemplate, "{code}", code)
}

// CachePath returns the deterministic cache location for code. The file
// name is the last element of the archive URL.
func (f *Fetcher) CachePath(code string) string {
	return filepath.Join(f.opts.CacheDir, path.Base(f.URL(code)))
}

// Cached reports whether the cache holds a valid archive for code.
func (f *Fetcher) Cached(code string) bool {
	return f.valid(f.CachePath(code))
}

// Fetch returns the path of a valid local archive for code.
func (f *Fetcher) Fetch(ctx context.Context, code string) (string, error) {
	dest := f.CachePath(code)
	if f.valid(dest) {
		f.opts.Logger.Debug("archive cache hit", "code", code, "path", dest)
		return dest, nil
	}

	if err := os.MkdirAll(f.opts.CacheDir, 0755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}

	url := f.URL(code)
	var lastErr error
	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		size, err := f.download(ctx, url, dest)
		if err == nil {
			f.opts.Logger.Debug("archive downloaded", "code", code, "bytes", size, "attempt", attempt)
			if f.opts.OnDownload != nil {
				f.opts.OnDownload(size)
			}
			return dest, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err

		delay := f.opts.Backoff(attempt)
		f.opts.Logger.Debug("download attempt failed", "code", code, "attempt", attempt, "delay", delay, "error", err)
		if f.opts.OnRetry != nil {
			f.opts.OnRetry(attempt, delay, err)
		}
		if err := pbhttp.Sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", &DownloadError{Code: code, Attempts: f.opts.Attempts, Err: lastErr}
}

// download performs one attempt. The body is streamed into a sibling
// .part file which replaces dest only when it passes the size check.
func (f *Fetcher) download(ctx context.Context, url, dest string) (int64, error) {
	body, err := f.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", tmp, err)
	}

	success := false
	defer func() {
		if !success {
			out.Close()
			os.Remove(tmp)
		}
	}()

	written, err := copyChunked(out, body, f.opts.ChunkSize)
	if err != nil {
		return written, err
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", tmp, err)
	}
	if written <= f.opts.MinSize {
		return written, fmt.Errorf("%w: got %d bytes, need more than %d", ErrArchiveTooSmall, written, f.opts.MinSize)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return written, fmt.Errorf("rename %s: %w", tmp, err)
	}

	success = true
	return written, nil
}

func (f *Fetcher) valid(p string) bool {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Size() > f.opts.MinSize
}

// copyChunked streams r into w through a fixed-size buffer.
func copyChunked(w io.Writer, r io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			nw, writeErr := w.Write(buf[:n])
			written += int64(nw)
			if writeErr != nil {
				return written, fmt.Errorf("write: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("read: %w", readErr)
		}
	}
}
