package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/placebounds/internal/metrics"
	"github.com/ligustah/placebounds/internal/pipeline"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/publish"
)

// runGenerate produces one boundary file per selected region. Regions
// whose output already exists are skipped without network access.
func runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	s := newSettings(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds generate [options]

Download TIGER/Line place archives, simplify the boundaries and write
<region>_boundaries.geojson for every selected region. Existing files are
skipped, so an interrupted run can simply be repeated.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	log, runID := newLogger("generate")
	reporter := progress.NewReporter(progress.Options{Total: len(regs), Output: os.Stdout})
	rec := metrics.NewRecorder()

	opts := pipeline.Options{
		OutputDir:       cfg.OutputDir,
		TempDir:         cfg.TempDir,
		Tolerance:       cfg.Tolerance,
		CoarseTolerance: cfg.CoarseTolerance,
		NameField:       cfg.NameField,
		Reporter:        reporter,
		Metrics:         rec,
		Logger:          log,
	}

	var pub *publish.Publisher
	if cfg.Bucket != "" {
		var err error
		if pub, err = publish.Open(ctx, cfg.Bucket, cfg.BucketPrefix); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		defer pub.Close()
		opts.Publisher = pub
	}

	f := newFetcher(cfg, reporter, rec, log)
	runner := pipeline.NewRunner(pipeline.NewProcessor(f, opts), cfg.Pause)

	log.Info("run started", "regions", len(regs), "output_dir", cfg.OutputDir, "cache_dir", cfg.CacheDir)
	summary := runner.Run(ctx, regs)
	log.Info("run finished",
		"succeeded", summary.Succeeded,
		"failed", len(summary.Failed),
		"elapsed", reporter.Elapsed(),
	)

	if pub != nil && summary.Err == nil {
		var objects []publish.Result
		for _, res := range summary.Results {
			if res.Object.Key != "" {
				objects = append(objects, res.Object)
			}
		}
		if err := writeManifest(ctx, pub, objects, cfg, runID, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if summary.Err != nil {
		return ExitInterrupted
	}
	if cfg.Strict && len(summary.Failed) > 0 {
		return ExitRegionsFailed
	}
	return ExitSuccess
}
