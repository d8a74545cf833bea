package main

import (
	"flag"
	"fmt"
	"os"

	pbhttp "github.com/ligustah/placebounds/internal/http"
	"github.com/ligustah/placebounds/internal/metrics"
	"github.com/ligustah/placebounds/internal/progress"
)

// runFetch fills the archive cache without processing anything.
func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	s := newSettings(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds fetch [options]

Download the archives of the selected regions into the cache directory.
Archives already cached are not downloaded again.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	log, _ := newLogger("fetch")
	reporter := progress.NewReporter(progress.Options{Total: len(regs), Output: os.Stdout})
	rec := metrics.NewRecorder()
	f := newFetcher(cfg, reporter, rec, log)

	var failed []string
	downloaded := false
	for _, r := range regs {
		if downloaded && cfg.Pause > 0 {
			if err := pbhttp.Sleep(ctx, cfg.Pause); err != nil {
				return ExitInterrupted
			}
		}

		reporter.RegionStarted(r.Code, r.ID)
		cached := f.Cached(r.Code)
		if !cached {
			reporter.Downloading()
		}

		p, err := f.Fetch(ctx, r.Code)
		downloaded = !cached
		if err != nil {
			if ctx.Err() != nil {
				return ExitInterrupted
			}
			reporter.Failed(err)
			failed = append(failed, r.ID)
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			reporter.Failed(err)
			failed = append(failed, r.ID)
			continue
		}
		fmt.Printf("  OK: %s (%s)\n", p, progress.FormatBytes(info.Size()))
	}

	reporter.Summary(len(regs), failed)

	if cfg.MetricsFile != "" {
		if err := rec.WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if len(failed) > 0 {
		return ExitSourceNotAccess
	}
	return ExitSuccess
}
