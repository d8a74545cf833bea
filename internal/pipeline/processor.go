package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ligustah/placebounds/internal/archive"
	"github.com/ligustah/placebounds/internal/boundary"
	"github.com/ligustah/placebounds/internal/metrics"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/publish"
	"github.com/ligustah/placebounds/internal/regions"
)

// ErrPanic wraps a panic recovered while processing a region.
var ErrPanic = errors.New("region processing panicked")

// OutputSuffix is appended to the region ID to name its output file.
const OutputSuffix = "_boundaries.geojson"

// Status is the outcome of processing one region.
type Status int

const (
	Succeeded Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// OK reports whether the region has a usable output file.
func (s Status) OK() bool {
	return s == Succeeded || s == Skipped
}

// Result describes one processed region.
type Result struct {
	Region   regions.Region
	Status   Status
	Path     string
	Features int   // features written; zero when skipped
	Bytes    int64 // output size; zero when skipped
	Err      error
	Duration time.Duration

	// Object is set when the output was published or found up to date
	// in the bucket. Published is set when it was uploaded by this call.
	Object     publish.Result
	Published  bool
	PublishErr error
}

// Fetcher resolves a region code to a local archive path.
type Fetcher interface {
	Fetch(ctx context.Context, code string) (string, error)
}

// Publisher uploads a finished output file.
type Publisher interface {
	Publish(ctx context.Context, path string) (publish.Result, error)
}

// Options configures a Processor.
type Options struct {
	// OutputDir receives one <id>_boundaries.geojson per region.
	OutputDir string

	// TempDir is the parent of per-region scratch directories.
	// Default: os.TempDir()
	TempDir string

	// Tolerance applies to regions not in the large set.
	Tolerance float64

	// CoarseTolerance applies to regions in the large set.
	CoarseTolerance float64

	// NameField is the source attribute written as "name".
	NameField string

	// Publisher, when set, uploads outputs after they are written or
	// found to exist.
	Publisher Publisher

	// Reporter receives console progress. Default: discard
	Reporter *progress.Reporter

	// Metrics, when set, records outcomes.
	Metrics *metrics.Recorder

	// Logger receives diagnostics. Default: slog.Default()
	Logger *slog.Logger
}

// Processor produces the boundary file of a single region.
type Processor struct {
	fetcher Fetcher
	opts    Options
}

// NewProcessor creates a processor that obtains archives from f.
func NewProcessor(f Fetcher, opts Options) *Processor {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 0.001
	}
	if opts.CoarseTolerance <= 0 {
		opts.CoarseTolerance = 0.002
	}
	if opts.NameField == "" {
		opts.NameField = "NAME"
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.NewReporter(progress.Options{Output: io.Discard})
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Processor{fetcher: f, opts: opts}
}

// OutputPath returns where the boundary file of r is written.
func (p *Processor) OutputPath(r regions.Region) string {
	return filepath.Join(p.opts.OutputDir, r.ID+OutputSuffix)
}

// Tolerance returns the simplification tolerance for r in degrees.
func (p *Processor) Tolerance(r regions.Region) float64 {
	if regions.IsLarge(r.ID) {
		return p.opts.CoarseTolerance
	}
	return p.opts.Tolerance
}

// Process produces the output file of r. It never panics; every failure
// is reported through the returned Result.
func (p *Processor) Process(ctx context.Context, r regions.Region) (res Result) {
	start := time.Now()
	res = Result{Region: r, Path: p.OutputPath(r)}
	log := p.opts.Logger.With("code", r.Code, "region", r.ID)

	defer func() {
		if v := recover(); v != nil {
			res.Status = Failed
			res.Err = fmt.Errorf("%w: %v", ErrPanic, v)
		}
		res.Duration = time.Since(start)
		p.finish(ctx, log, &res)
	}()

	if _, err := os.Stat(res.Path); err == nil {
		res.Status = Skipped
		return res
	}

	if err := ctx.Err(); err != nil {
		res.Status = Failed
		res.Err = err
		return res
	}

	p.opts.Reporter.Downloading()
	zipPath, err := p.fetcher.Fetch(ctx, r.Code)
	if err != nil {
		res.Status = Failed
		res.Err = err
		return res
	}

	features, size, err := p.generate(zipPath, res.Path, p.Tolerance(r), log)
	if err != nil {
		res.Status = Failed
		res.Err = err
		return res
	}

	res.Status = Succeeded
	res.Features = features
	res.Bytes = size
	return res
}

// generate converts the archive at zipPath into the GeoJSON file out.
func (p *Processor) generate(zipPath, out string, tolerance float64, log *slog.Logger) (int, int64, error) {
	tmp, err := os.MkdirTemp(p.opts.TempDir, "placebounds-")
	if err != nil {
		return 0, 0, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Warn("failed to remove scratch directory", "path", tmp, "error", err)
		}
	}()

	if err := archive.Extract(zipPath, tmp); err != nil {
		return 0, 0, err
	}

	shpPath, err := archive.FindShapefile(tmp)
	if err != nil {
		return 0, 0, err
	}

	t, err := boundary.Load(shpPath)
	if err != nil {
		return 0, 0, err
	}
	if t.Skipped > 0 {
		log.Info("dropped null shapes", "count", t.Skipped)
	}

	before := t.Vertices()
	t.Simplify(tolerance)
	log.Debug("simplified", "tolerance", tolerance, "vertices_before", before, "vertices_after", t.Vertices())

	if err := t.Project(p.opts.NameField, "name"); err != nil {
		return 0, 0, err
	}

	size, err := t.WriteGeoJSON(out)
	if err != nil {
		return 0, 0, err
	}
	return t.Len(), size, nil
}

// finish reports the result and publishes usable outputs.
func (p *Processor) finish(ctx context.Context, log *slog.Logger, res *Result) {
	switch res.Status {
	case Skipped:
		p.opts.Reporter.Skipped()
	case Succeeded:
		p.opts.Reporter.Succeeded(res.Features, res.Bytes)
		log.Info("region written", "features", res.Features, "bytes", res.Bytes, "duration", res.Duration)
	case Failed:
		p.opts.Reporter.Failed(res.Err)
		log.Error("region failed", "error", res.Err)
	}

	if m := p.opts.Metrics; m != nil {
		m.Region(res.Status.String(), res.Duration)
		if res.Status == Succeeded {
			m.Written(res.Features, res.Bytes)
		}
	}

	if p.opts.Publisher == nil || !res.Status.OK() || ctx.Err() != nil {
		return
	}
	pub, err := p.opts.Publisher.Publish(ctx, res.Path)
	if err != nil {
		res.PublishErr = err
		log.Error("publish failed", "error", err)
		return
	}
	res.Object = pub
	res.Published = pub.Uploaded
	if pub.Uploaded {
		log.Info("published", "key", pub.Key, "bytes", pub.Size)
	}
}
