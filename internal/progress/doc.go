// Package progress prints per-region progress lines for a pipeline run.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{Total: len(regions)})
//
//	reporter.RegionStarted("25", "massachusetts")
//	reporter.Downloading()
//	reporter.Succeeded(features, size)
//	reporter.Summary(total, failed)
//
// # Output Format
//
//	[20/55] [25] massachusetts
//	  Downloading...
//	  OK: 351 places, 2.4 MB
//
//	Done. 54/55 succeeded.
//	Failed: guam
package progress
