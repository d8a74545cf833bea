package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/placebounds/internal/progress"
)

// runCheck compares cached archives with the remote copies. It only
// reports; generate always reuses a valid cached archive.
func runCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	s := newSettings(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds check [options]

Issue a HEAD request per region and report cached archives whose remote
copy changed size or was modified after the download. With -strict the
command exits non-zero when a stale archive is found.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	log, _ := newLogger("check")
	f := newFetcher(cfg, nil, nil, log)

	var stale, errs int
	for _, r := range regs {
		report, err := f.Stale(ctx, r.Code)
		if err != nil {
			if ctx.Err() != nil {
				return ExitInterrupted
			}
			errs++
			fmt.Printf("%-22s ERROR    %v\n", r.ID, err)
			continue
		}

		switch {
		case !report.Cached:
			fmt.Printf("%-22s UNCACHED remote %s\n", r.ID, progress.FormatBytes(report.RemoteSize))
		case report.Stale():
			stale++
			fmt.Printf("%-22s STALE    local %s, remote %s\n", r.ID,
				progress.FormatBytes(report.LocalSize), progress.FormatBytes(report.RemoteSize))
		default:
			fmt.Printf("%-22s OK       %s\n", r.ID, progress.FormatBytes(report.LocalSize))
		}
	}

	fmt.Printf("\nChecked %d regions: %d stale, %d errors\n", len(regs), stale, errs)

	if errs > 0 {
		return ExitSourceNotAccess
	}
	if stale > 0 && cfg.Strict {
		return ExitSourceChanged
	}
	return ExitSuccess
}
