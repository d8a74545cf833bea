package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidOutput is returned by Check for files that do not match the
// output schema.
var ErrInvalidOutput = errors.New("invalid boundary file")

// FeatureCollection converts the table to GeoJSON. Every attribute
// becomes a string property.
func (t *Table) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range t.Features {
		gf := geojson.NewFeature(f.Geometry)
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	return fc
}

// WriteGeoJSON serializes the table to path and returns the file size.
// The file is written to a temporary sibling and renamed into place, so
// path either does not exist or holds a complete document.
func (t *Table) WriteGeoJSON(path string) (int64, error) {
	data, err := json.Marshal(t.FeatureCollection())
	if err != nil {
		return 0, fmt.Errorf("encode geojson: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return 0, fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("rename %s: %w", tmpName, err)
	}

	success = true
	return int64(len(data)), nil
}

// CheckResult describes a valid boundary file.
type CheckResult struct {
	Path     string
	Features int
	Size     int64
}

// Check verifies that the file at path is a GeoJSON FeatureCollection in
// which every feature has exactly one property, the string nameProperty,
// and a Polygon or MultiPolygon geometry.
func Check(path, nameProperty string) (CheckResult, error) {
	res := CheckResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	res.Size = int64(len(data))

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	for i, f := range fc.Features {
		if len(f.Properties) != 1 {
			return res, fmt.Errorf("%w: feature %d has %d properties", ErrInvalidOutput, i, len(f.Properties))
		}
		if _, ok := f.Properties[nameProperty].(string); !ok {
			return res, fmt.Errorf("%w: feature %d has no string %q property", ErrInvalidOutput, i, nameProperty)
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return res, fmt.Errorf("%w: feature %d has geometry %T", ErrInvalidOutput, i, f.Geometry)
		}
	}

	res.Features = len(fc.Features)
	return res, nil
}
