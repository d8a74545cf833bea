package boundary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestWriteGeoJSONAndCheck(t *testing.T) {
	table := loadSample(t)
	table.Simplify(0.001)
	if err := table.Project("NAME", "name"); err != nil {
		t.Fatalf("Project: %v", err)
	}

	out := filepath.Join(t.TempDir(), "nested", "massachusetts_boundaries.geojson")
	size, err := table.WriteGeoJSON(out)
	if err != nil {
		t.Fatalf("WriteGeoJSON: %v", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != size {
		t.Errorf("reported size %d, file size %d", size, info.Size())
	}

	entries, err := os.ReadDir(filepath.Dir(out))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}

	res, err := Check(out, "name")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Features != 3 {
		t.Errorf("expected 3 features, got %d", res.Features)
	}
}

func TestCheckRejectsExtraProperties(t *testing.T) {
	table := loadSample(t)

	out := filepath.Join(t.TempDir(), "unprojected.geojson")
	if _, err := table.WriteGeoJSON(out); err != nil {
		t.Fatalf("WriteGeoJSON: %v", err)
	}

	_, err := Check(out, "name")
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestCheckRejectsPointGeometry(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{1, 2})
	f.Properties["name"] = "Somewhere"
	fc.Append(f)

	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := filepath.Join(t.TempDir(), "points.geojson")
	if err := os.WriteFile(out, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err = Check(out, "name")
	if !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestCheckRejectsGarbage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "garbage.geojson")
	if err := os.WriteFile(out, []byte("not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Check(out, "name"); !errors.Is(err, ErrInvalidOutput) {
		t.Errorf("expected ErrInvalidOutput, got %v", err)
	}
}
