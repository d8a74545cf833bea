// Package publish copies boundary files into object storage.
//
// Any gocloud.dev/blob URL works; the drivers for local files, memory,
// S3 and GCS are linked in by the CLI.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ContentType is set on every uploaded object.
const ContentType = "application/geo+json"

// Result describes one published file.
type Result struct {
	Key      string
	Size     int64
	Checksum string // hex SHA-256 of the local file
	Uploaded bool   // false when an identical object already existed
}

// Publisher uploads files under a key prefix of a bucket.
type Publisher struct {
	bucket *blob.Bucket
	prefix string
}

// Open opens the bucket at url.
func Open(ctx context.Context, url, prefix string) (*Publisher, error) {
	bkt, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return New(bkt, prefix), nil
}

// New wraps an open bucket. The caller keeps ownership of bucket unless
// Close is called.
func New(bucket *blob.Bucket, prefix string) *Publisher {
	return &Publisher{bucket: bucket, prefix: prefix}
}

// Key returns the object key used for the local file at path.
func (p *Publisher) Key(path string) string {
	return p.prefix + filepath.Base(path)
}

// Publish uploads the file at path unless an identical object is already
// stored under its key. Objects are identical when the sizes match and
// the stored checksum, if any, matches the local file.
func (p *Publisher) Publish(ctx context.Context, path string) (Result, error) {
	key := p.Key(path)

	size, sum, err := fileChecksum(path)
	if err != nil {
		return Result{Key: key}, err
	}
	res := Result{Key: key, Size: size, Checksum: sum}

	attrs, err := p.bucket.Attributes(ctx, key)
	switch {
	case err == nil && attrs.Size == size && checksumMatches(attrs.Metadata, sum):
		return res, nil
	case err != nil && gcerrors.Code(err) != gcerrors.NotFound:
		return res, fmt.Errorf("stat %s: %w", key, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	w, err := p.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: ContentType,
		Metadata:    map[string]string{checksumKey: sum},
	})
	if err != nil {
		return res, fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return res, fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return res, fmt.Errorf("close %s: %w", key, err)
	}

	res.Uploaded = true
	return res, nil
}

// Close closes the underlying bucket.
func (p *Publisher) Close() error {
	return p.bucket.Close()
}
