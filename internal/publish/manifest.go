package publish

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ManifestName is the key, below the prefix, of the manifest object.
const ManifestName = "manifest.json"

// checksumKey is the object metadata key holding the hex SHA-256.
const checksumKey = "sha256"

// Manifest lists the boundary files published by a run.
type Manifest struct {
	TotalSize   int64             `json:"total_size"`
	Files       []FileInfo        `json:"files"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// FileInfo describes a single published object. Object is relative to
// the publisher's prefix.
type FileInfo struct {
	Object   string `json:"object"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

// ValidationResult contains the results of checking a bucket against
// its manifest.
type ValidationResult struct {
	Valid              bool     // true if all objects exist and match
	TotalSize          int64    // total size from manifest
	FileCount          int      // number of files in manifest
	MissingFiles       int      // number of objects that don't exist
	SizeMismatches     int      // number of objects with wrong size
	ChecksumMismatches int      // number of objects with a different checksum
	Errors             []string // detailed error messages
}

// WriteManifest stores a manifest listing results under the prefix.
// Results of previous manifests are kept unless results replaces them.
func (p *Publisher) WriteManifest(ctx context.Context, results []Result, metadata map[string]string) (*Manifest, error) {
	prev, err := p.ReadManifest(ctx)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return nil, err
	}

	files := make(map[string]FileInfo)
	var order []string
	add := func(fi FileInfo) {
		if _, ok := files[fi.Object]; !ok {
			order = append(order, fi.Object)
		}
		files[fi.Object] = fi
	}
	if prev != nil {
		for _, fi := range prev.Files {
			add(fi)
		}
	}
	for _, r := range results {
		add(FileInfo{Object: strings.TrimPrefix(r.Key, p.prefix), Size: r.Size, Checksum: r.Checksum})
	}

	m := &Manifest{Metadata: metadata, CompletedAt: time.Now().UTC()}
	for _, name := range order {
		fi := files[name]
		m.Files = append(m.Files, fi)
		m.TotalSize += fi.Size
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("publish: marshal manifest: %w", err)
	}
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if err := p.bucket.WriteAll(ctx, p.prefix+ManifestName, data, opts); err != nil {
		return nil, fmt.Errorf("publish: write manifest: %w", err)
	}
	return m, nil
}

// ReadManifest loads the manifest stored under the prefix. A missing
// manifest yields an error with gcerrors code NotFound.
func (p *Publisher) ReadManifest(ctx context.Context) (*Manifest, error) {
	data, err := p.bucket.ReadAll(ctx, p.prefix+ManifestName)
	if err != nil {
		return nil, fmt.Errorf("publish: read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("publish: unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that every object listed in the manifest exists with
// the recorded size and checksum. It reads only object attributes.
//
// Missing objects and mismatches are reported in the result, not as an
// error. An error is returned when the manifest cannot be read or the
// bucket cannot be queried.
func (p *Publisher) Validate(ctx context.Context) (*ValidationResult, error) {
	m, err := p.ReadManifest(ctx)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:     true,
		TotalSize: m.TotalSize,
		FileCount: len(m.Files),
		Errors:    make([]string, 0),
	}

	for _, fi := range m.Files {
		key := p.prefix + fi.Object

		attrs, err := p.bucket.Attributes(ctx, key)
		if err != nil {
			if gcerrors.Code(err) == gcerrors.NotFound {
				result.Valid = false
				result.MissingFiles++
				result.Errors = append(result.Errors, fmt.Sprintf("%s missing", key))
				continue
			}
			return nil, fmt.Errorf("publish: check %s: %w", key, err)
		}

		if attrs.Size != fi.Size {
			result.Valid = false
			result.SizeMismatches++
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s size mismatch: expected %d, got %d", key, fi.Size, attrs.Size))
			continue
		}
		if fi.Checksum != "" && !checksumMatches(attrs.Metadata, fi.Checksum) {
			result.Valid = false
			result.ChecksumMismatches++
			result.Errors = append(result.Errors, fmt.Sprintf("%s checksum mismatch", key))
		}
	}

	return result, nil
}

// checksumMatches reports whether metadata carries no checksum or sum.
func checksumMatches(metadata map[string]string, sum string) bool {
	stored, ok := metadata[checksumKey]
	return !ok || stored == sum
}

func fileChecksum(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", fmt.Errorf("read %s: %w", path, err)
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
