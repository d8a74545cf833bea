package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/placebounds/internal/pipeline"
	"github.com/ligustah/placebounds/internal/progress"
	"github.com/ligustah/placebounds/internal/publish"
)

// runPublish uploads existing boundary files without regenerating them.
func runPublish(args []string) int {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	s := newSettings(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: placebounds publish -bucket <url> [options]

Upload the boundary files of the selected regions to a bucket. Objects
that already exist with the same size are left alone.

Options:`)
		fs.PrintDefaults()
	}

	cfg, regs, ok := s.parse(args)
	if !ok {
		return ExitInvalidArgs
	}
	if cfg.Bucket == "" {
		fmt.Fprintln(os.Stderr, "Error: -bucket is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	log, runID := newLogger("publish")

	pub, err := publish.Open(ctx, cfg.Bucket, cfg.BucketPrefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer pub.Close()

	var objects []publish.Result
	var uploaded, unchanged, failed int
	for _, r := range regs {
		path := filepath.Join(cfg.OutputDir, r.ID+pipeline.OutputSuffix)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		res, err := pub.Publish(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ExitInterrupted
			}
			failed++
			log.Error("publish failed", "region", r.ID, "error", err)
			fmt.Printf("  ERROR: %s: %v\n", r.ID, err)
			continue
		}
		objects = append(objects, res)
		if res.Uploaded {
			uploaded++
			fmt.Printf("  uploaded %s (%s)\n", res.Key, progress.FormatBytes(res.Size))
		} else {
			unchanged++
			fmt.Printf("  unchanged %s\n", res.Key)
		}
	}

	fmt.Printf("\nPublished %d, unchanged %d, failed %d\n", uploaded, unchanged, failed)

	if err := writeManifest(ctx, pub, objects, cfg, runID, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	if failed > 0 {
		return ExitStorageError
	}
	return ExitSuccess
}
