package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestStale(t *testing.T) {
	var remoteSize, lastModified atomic.Int64
	remoteSize.Store(2048)
	lastModified.Store(time.Now().Add(time.Hour).Unix())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.Header().Set("Content-Length", strconv.FormatInt(remoteSize.Load(), 10))
		w.Header().Set("Last-Modified", time.Unix(lastModified.Load(), 0).UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"v2"`)
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, nil)

	report, err := f.Stale(context.Background(), "25")
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if report.Cached || report.Stale() {
		t.Errorf("uncached archive should be neither cached nor stale: %+v", report)
	}

	if err := os.WriteFile(f.CachePath("25"), testArchive(int(remoteSize.Load())), 0644); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	report, err = f.Stale(context.Background(), "25")
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if !report.Cached {
		t.Fatal("expected cached archive")
	}
	if report.RemoteETag != "v2" {
		t.Errorf("expected etag v2, got %s", report.RemoteETag)
	}
	if !report.Stale() {
		t.Error("remote modified after local copy should be stale")
	}

	lastModified.Store(time.Now().Add(-24 * time.Hour).Unix())
	report, err = f.Stale(context.Background(), "25")
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if report.Stale() {
		t.Errorf("same size and older remote should not be stale: %+v", report)
	}

	remoteSize.Store(4096)
	report, err = f.Stale(context.Background(), "25")
	if err != nil {
		t.Fatalf("Stale: %v", err)
	}
	if !report.Stale() {
		t.Error("size mismatch should be stale")
	}
}
