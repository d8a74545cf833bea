package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ligustah/placebounds/internal/boundary"
	"github.com/ligustah/placebounds/internal/pipeline"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/publish"
)

// runValidate checks every selected region's boundary file against the
// output schema: a FeatureCollection of polygons carrying only a name.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	s := newSettings(fs)
	allowMissing := fs.Bool("allow-missing", false, "Do not fail on regions without a boundary file")
	remote := fs.Bool("remote", false, "Check published objects against the bucket manifest instead")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds validate [options]

Verify that boundary files parse and contain only a name property and a
polygon geometry per feature. With -remote, verify instead that every
object listed in the bucket manifest exists with the recorded size and
checksum.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}

	if *remote {
		if cfg.Bucket == "" {
			fmt.Fprintln(os.Stderr, "Error: -remote requires -bucket")
			return ExitInvalidArgs
		}
		return validateRemote(cfg.Bucket, cfg.BucketPrefix)
	}

	var invalid, missing int
	for _, r := range regs {
		path := filepath.Join(cfg.OutputDir, r.ID+pipeline.OutputSuffix)

		res, err := boundary.Check(path, "name")
		switch {
		case errors.Is(err, os.ErrNotExist):
			missing++
			fmt.Printf("%-22s MISSING\n", r.ID)
		case err != nil:
			invalid++
			fmt.Printf("%-22s INVALID  %v\n", r.ID, err)
		default:
			fmt.Printf("%-22s OK       %d places, %s\n", r.ID, res.Features, progress.FormatBytes(res.Size))
		}
	}

	fmt.Printf("\nChecked %d regions: %d invalid, %d missing\n", len(regs), invalid, missing)

	if invalid > 0 || (missing > 0 && !*allowMissing) {
		return ExitValidationFailed
	}
	return ExitSuccess
}

func validateRemote(bucketURL, prefix string) int {
	ctx, cancel := signalContext()
	defer cancel()

	pub, err := publish.Open(ctx, bucketURL, prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer pub.Close()

	result, err := pub.Validate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Printf("Manifest: %s%s\n", prefix, publish.ManifestName)
	fmt.Printf("Total size: %d bytes\n", result.TotalSize)
	fmt.Printf("Files: %d\n", result.FileCount)

	if result.Valid {
		fmt.Println("Status: VALID")
		return ExitSuccess
	}

	fmt.Println("Status: INVALID")
	fmt.Printf("Missing files: %d\n", result.MissingFiles)
	fmt.Printf("Size mismatches: %d\n", result.SizeMismatches)
	fmt.Printf("Checksum mismatches: %d\n", result.ChecksumMismatches)

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return ExitValidationFailed
}
