package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Total is the number of regions in the run.
	Total int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer
}

// Reporter writes one human-readable line per pipeline event. Lines are
// written immediately so a tail of the output shows where a run stopped.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	current int
	start   time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Reporter{opts: opts, start: time.Now()}
}

// RegionStarted prints the "[i/N] [code] id" header for the next region.
func (r *Reporter) RegionStarted(code, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current++
	r.printf("[%d/%d] [%s] %s\n", r.current, r.opts.Total, code, id)
}

// Skipped reports a region whose output already exists.
func (r *Reporter) Skipped() {
	r.line("  SKIP (exists)")
}

// Downloading reports that the archive is being resolved.
func (r *Reporter) Downloading() {
	r.line("  Downloading...")
}

// AttemptFailed reports a failed download attempt.
func (r *Reporter) AttemptFailed(attempt int, err error) {
	r.line(fmt.Sprintf("    Download attempt %d failed: %v", attempt, err))
}

// Succeeded reports a written output file.
func (r *Reporter) Succeeded(features int, size int64) {
	r.line(fmt.Sprintf("  OK: %d places, %.1f MB", features, float64(size)/1024/1024))
}

// Failed reports a region failure.
func (r *Reporter) Failed(err error) {
	r.line(fmt.Sprintf("  ERROR: %v", err))
}

// Summary prints the final tally and the failed region IDs, if any.
func (r *Reporter) Summary(total int, failed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\nDone. %d/%d succeeded.\n", total-len(failed), total)
	if len(failed) > 0 {
		r.printf("Failed: %s\n", strings.Join(failed, ", "))
	}
}

// Elapsed returns the time since the reporter was created.
func (r *Reporter) Elapsed() time.Duration {
	return time.Since(r.start)
}

func (r *Reporter) line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.printf("%s\n", s)
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.opts.Output, format, args...)
}
