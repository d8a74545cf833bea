package testutils

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/klauspost/compress/zip"
	"github.com/paulmach/orb"
)

// Place is a polygon record written into test shapefiles. Rings follow
// the shapefile convention: shells clockwise, holes counter-clockwise.
type Place struct {
	Name  string
	GEOID string
	LSAD  string
	Rings []orb.Ring
}

// Square returns a clockwise square ring with its lower-left corner at x, y.
func Square(x, y, size float64) orb.Ring {
	return orb.Ring{
		{x, y},
		{x, y + size},
		{x + size, y + size},
		{x + size, y},
		{x, y},
	}
}

// Circle returns a clockwise ring of n points around cx, cy.
func Circle(cx, cy, radius float64, n int) orb.Ring {
	r := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := -2 * math.Pi * float64(i) / float64(n)
		r = append(r, orb.Point{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
	}
	return append(r, r[0])
}

// Reverse returns a copy of r with the opposite winding.
func Reverse(r orb.Ring) orb.Ring {
	out := r.Clone()
	out.Reverse()
	return out
}

// WriteShapefile writes base.shp, base.shx and base.dbf into dir with the
// TIGER place columns NAME, GEOID and LSAD. It returns the .shp path.
func WriteShapefile(t *testing.T, dir, base string, places []Place) string {
	t.Helper()

	shpPath := filepath.Join(dir, base+".shp")
	w, err := shp.Create(shpPath, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}

	w.SetFields([]shp.Field{
		shp.StringField("NAME", 100),
		shp.StringField("GEOID", 7),
		shp.StringField("LSAD", 2),
	})

	for i, p := range places {
		parts := make([][]shp.Point, 0, len(p.Rings))
		for _, r := range p.Rings {
			pts := make([]shp.Point, len(r))
			for j, pt := range r {
				pts[j] = shp.Point{X: pt[0], Y: pt[1]}
			}
			parts = append(parts, pts)
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		w.Write(&poly)

		for field, value := range []string{p.Name, p.GEOID, p.LSAD} {
			if err := w.WriteAttribute(i, field, value); err != nil {
				t.Fatalf("write attribute: %v", err)
			}
		}
	}
	w.Close()

	return shpPath
}

// PlaceArchive builds a TIGER-style zip archive holding a shapefile named
// base with the given places.
func PlaceArchive(t *testing.T, base string, places []Place) []byte {
	t.Helper()

	dir := t.TempDir()
	WriteShapefile(t, dir, base, places)

	files := map[string][]byte{base + ".cpg": []byte("UTF-8")}
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		data, err := os.ReadFile(filepath.Join(dir, base+ext))
		if err != nil {
			t.Fatalf("read %s: %v", ext, err)
		}
		files[base+ext] = data
	}
	return ZipFiles(t, files)
}

// ZipFiles returns a zip archive of the given name/content pairs.
func ZipFiles(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// SamplePlaces returns three places: a plain square, a dense circle and a
// square with a hole.
func SamplePlaces() []Place {
	return []Place{
		{Name: "Boston", GEOID: "2507000", LSAD: "25", Rings: []orb.Ring{Square(-71.1, 42.3, 0.1)}},
		{Name: "Cambridge", GEOID: "2511000", LSAD: "25", Rings: []orb.Ring{Circle(-71.3, 42.5, 0.05, 720)}},
		{Name: "Springfield", GEOID: "2567000", LSAD: "25", Rings: []orb.Ring{
			Square(-72.6, 42.0, 0.2),
			Reverse(Square(-72.55, 42.05, 0.05)),
		}},
	}
}
