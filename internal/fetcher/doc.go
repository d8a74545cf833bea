// Package fetcher downloads region archives into a local cache.
//
// A cached archive is reused whenever its size exceeds the configured
// minimum; there is no checksum or conditional request. Otherwise the
// archive is fetched with up to Options.Attempts attempts, waiting
// Options.Backoff(attempt) after each failure. A body that does not exceed
// the minimum size counts as a failed attempt.
//
// # Usage
//
//	f := fetcher.New(client, fetcher.Options{
//	    CacheDir:    "zips",
//	    URLTemplate: config.DefaultURLTemplate,
//	    MinSize:     1000,
//	    Attempts:    3,
//	    Backoff:     http.LinearBackoff(5 * time.Second),
//	})
//	path, err := f.Fetch(ctx, "25")
//	if errors.Is(err, fetcher.ErrDownloadFailed) { ... }
package fetcher
