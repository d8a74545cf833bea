package fetcher

import (
	"context"
	"fmt"
	"os"
	"time"
)

// StaleReport compares a cached archive with the remote copy.
type StaleReport struct {
	Code         string
	Path         string
	Cached       bool
	LocalSize    int64
	LocalModTime time.Time
	RemoteSize   int64
	RemoteETag   string
	RemoteMod    time.Time
}

// Stale reports whether the remote archive differs from the cached one.
// Size mismatches count, as does a remote modification time later than
// the local file's.
func (r StaleReport) Stale() bool {
	if !r.Cached {
		return false
	}
	if r.RemoteSize > 0 && r.RemoteSize != r.LocalSize {
		return true
	}
	return !r.RemoteMod.IsZero() && r.RemoteMod.After(r.LocalModTime)
}

// Stale issues a HEAD request for code and compares the answer with the
// cache. Fetch never consults it: a valid cache is always reused.
func (f *Fetcher) Stale(ctx context.Context, code string) (StaleReport, error) {
	report := StaleReport{Code: code, Path: f.CachePath(code)}

	if info, err := os.Stat(report.Path); err == nil && f.valid(report.Path) {
		report.Cached = true
		report.LocalSize = info.Size()
		report.LocalModTime = info.ModTime()
	}

	remote, err := f.client.Head(ctx, f.URL(code))
	if err != nil {
		return report, fmt.Errorf("head %s: %w", code, err)
	}
	report.RemoteSize = remote.Size
	report.RemoteETag = remote.ETag
	report.RemoteMod = remote.LastModified

	return report, nil
}
