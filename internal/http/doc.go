// Package http provides the HTTP client used to fetch Census archives.
//
// This package handles:
//   - A single reusable client with a fixed User-Agent
//   - Separate connect and read timeouts
//   - HEAD requests to get file metadata
//   - Status classification into sentinel errors
//   - Linear backoff helpers for callers that retry
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	body, err := client.Get(ctx, url)
//	defer body.Close()
//
//	info, err := client.Head(ctx, url)
//	// info.Size, info.ETag, info.LastModified
package http
