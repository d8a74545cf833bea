package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ligustah/placebounds/internal/pipeline"
)

// runRegions prints the selected regions with their tolerance class.
func runRegions(args []string) int {
	fs := flag.NewFlagSet("regions", flag.ExitOnError)
	s := newSettings(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds regions [options]

List region codes, IDs and the simplification tolerance applied to each.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}

	proc := pipeline.NewProcessor(nil, pipeline.Options{
		Tolerance:       cfg.Tolerance,
		CoarseTolerance: cfg.CoarseTolerance,
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tID\tTOLERANCE")
	for _, r := range regs {
		fmt.Fprintf(w, "%s\t%s\t%g\n", r.Code, r.ID, proc.Tolerance(r))
	}
	if err := w.Flush(); err != nil {
		return ExitGeneralError
	}
	return ExitSuccess
}
