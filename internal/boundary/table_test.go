package boundary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/ligustah/placebounds/internal/testutils"
)

func loadSample(t *testing.T) *Table {
	t.Helper()
	path := testutils.WriteShapefile(t, t.TempDir(), "tl_2020_25_place", testutils.SamplePlaces())
	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return table
}

func TestLoad(t *testing.T) {
	table := loadSample(t)

	if table.Len() != 3 {
		t.Fatalf("expected 3 features, got %d", table.Len())
	}
	wantFields := []string{"NAME", "GEOID", "LSAD"}
	if len(table.Fields) != len(wantFields) {
		t.Fatalf("expected fields %v, got %v", wantFields, table.Fields)
	}
	for i, f := range wantFields {
		if table.Fields[i] != f {
			t.Errorf("field %d: expected %s, got %s", i, f, table.Fields[i])
		}
	}

	first := table.Features[0]
	if first.Properties["NAME"] != "Boston" || first.Properties["GEOID"] != "2507000" {
		t.Errorf("unexpected attributes %v", first.Properties)
	}
	poly, ok := first.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected orb.Polygon, got %T", first.Geometry)
	}
	if poly[0].Orientation() != orb.CCW {
		t.Error("expected shell to be rewound counter-clockwise")
	}

	holed, ok := table.Features[2].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected orb.Polygon for holed place, got %T", table.Features[2].Geometry)
	}
	if len(holed) != 2 {
		t.Fatalf("expected shell and hole, got %d rings", len(holed))
	}
	if holed[1].Orientation() != orb.CW {
		t.Error("expected hole to be clockwise")
	}
}

func TestLoadMultiPolygon(t *testing.T) {
	places := []testutils.Place{{
		Name:  "Nantucket",
		GEOID: "2543790",
		Rings: []orb.Ring{
			testutils.Square(-70.2, 41.2, 0.05),
			testutils.Square(-70.0, 41.3, 0.05),
		},
	}}
	path := testutils.WriteShapefile(t, t.TempDir(), "islands", places)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mp, ok := table.Features[0].Geometry.(orb.MultiPolygon)
	if !ok {
		t.Fatalf("expected orb.MultiPolygon, got %T", table.Features[0].Geometry)
	}
	if len(mp) != 2 {
		t.Errorf("expected 2 polygons, got %d", len(mp))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/places.shp"); err == nil {
		t.Error("expected error for missing shapefile")
	}
}

func TestProject(t *testing.T) {
	table := loadSample(t)

	if err := table.Project("NAME", "name"); err != nil {
		t.Fatalf("Project: %v", err)
	}

	if len(table.Fields) != 1 || table.Fields[0] != "name" {
		t.Errorf("expected fields [name], got %v", table.Fields)
	}
	for i, f := range table.Features {
		if len(f.Properties) != 1 {
			t.Errorf("feature %d: expected 1 property, got %v", i, f.Properties)
		}
		if f.Properties["name"] == "" {
			t.Errorf("feature %d: empty name", i)
		}
		if f.Geometry == nil {
			t.Errorf("feature %d: lost geometry", i)
		}
	}
	if table.Features[1].Properties["name"] != "Cambridge" {
		t.Errorf("expected Cambridge, got %s", table.Features[1].Properties["name"])
	}
}

func TestProjectMissingField(t *testing.T) {
	table := loadSample(t)

	err := table.Project("NAMELSAD", "name")
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	if len(table.Fields) != 3 {
		t.Error("table should be unchanged after failed projection")
	}
}

func TestLoadTruncatedShapefile(t *testing.T) {
	path := testutils.WriteShapefile(t, t.TempDir(), "tl_2020_25_place", testutils.SamplePlaces())

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-40); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err == nil {
		t.Fatalf("expected error for truncated shapefile, loaded %d features", table.Len())
	}
}

func TestLoadRecordsMissingShapes(t *testing.T) {
	dir := t.TempDir()
	full := testutils.WriteShapefile(t, dir, "full", testutils.SamplePlaces())
	short := testutils.WriteShapefile(t, dir, "short", testutils.SamplePlaces()[:2])

	// Pair the two-record .shp/.shx with the three-row attribute table.
	dbf, err := os.ReadFile(filepath.Join(dir, "full.dbf"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "short.dbf"), dbf, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(full); err != nil {
		t.Fatalf("Load full: %v", err)
	}
	if _, err := Load(short); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete, got %v", err)
	}
}

func TestLoadSkipsEmptyShapes(t *testing.T) {
	places := append(testutils.SamplePlaces(), testutils.Place{
		Name:  "Nowhere",
		GEOID: "2599999",
		LSAD:  "25",
	})
	path := testutils.WriteShapefile(t, t.TempDir(), "tl_2020_25_place", places)

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Skipped != 1 {
		t.Errorf("expected 1 skipped shape, got %d", table.Skipped)
	}
	if table.Len() != len(places)-1 {
		t.Errorf("expected %d features, got %d", len(places)-1, table.Len())
	}
	for _, f := range table.Features {
		if f.Properties["NAME"] == "Nowhere" {
			t.Error("empty shape should not become a feature")
		}
	}
}
