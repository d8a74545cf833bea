package boundary

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrUnsupportedShape is returned for shapefiles that do not hold polygons.
var ErrUnsupportedShape = errors.New("unsupported shape type")

// ErrIncomplete is returned when fewer shapes than attribute rows could be
// read, which happens for truncated .shp files.
var ErrIncomplete = errors.New("shapefile incomplete")

// ErrMissingField is returned by Project when the source attribute is absent.
var ErrMissingField = errors.New("missing attribute")

// Feature is one row of a Table.
type Feature struct {
	Geometry   orb.Geometry // orb.Polygon or orb.MultiPolygon
	Properties map[string]string
}

// Table is an in-memory geometry table: attribute columns plus a
// geometry column.
type Table struct {
	Fields   []string
	Features []Feature

	// Skipped counts null shapes dropped while loading.
	Skipped int
}

// Len returns the number of features.
func (t *Table) Len() int {
	return len(t.Features)
}

// Load reads the shapefile at path together with its .dbf attributes.
func Load(path string) (*Table, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	t := &Table{Fields: make([]string, len(fields))}
	for i, f := range fields {
		t.Fields[i] = f.String()
	}

	records := 0
	for r.Next() {
		records++
		n, s := r.Shape()

		parts, points, ok := polygonParts(s)
		if !ok {
			if _, null := s.(*shp.Null); null || s == nil {
				t.Skipped++
				continue
			}
			return nil, fmt.Errorf("%w: record %d is %T", ErrUnsupportedShape, n, s)
		}

		props := make(map[string]string, len(t.Fields))
		for i, name := range t.Fields {
			props[name] = cleanAttribute(r.ReadAttribute(n, i))
		}

		geom := buildGeometry(rings(parts, points))
		if geom == nil {
			t.Skipped++
			continue
		}
		t.Features = append(t.Features, Feature{Geometry: geom, Properties: props})
	}

	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	if want := r.AttributeCount(); records != want {
		return nil, fmt.Errorf("%w: read %d of %d records", ErrIncomplete, records, want)
	}

	return t, nil
}

// Project reduces every feature to the single attribute from, renamed to
// to. The geometry column is kept.
func (t *Table) Project(from, to string) error {
	found := false
	for _, f := range t.Fields {
		if f == from {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s (have %s)", ErrMissingField, from, strings.Join(t.Fields, ", "))
	}

	for i := range t.Features {
		t.Features[i].Properties = map[string]string{to: t.Features[i].Properties[from]}
	}
	t.Fields = []string{to}
	return nil
}

func polygonParts(s shp.Shape) ([]int32, []shp.Point, bool) {
	switch p := s.(type) {
	case *shp.Polygon:
		return p.Parts, p.Points, true
	case *shp.PolygonZ:
		return p.Parts, p.Points, true
	case *shp.PolygonM:
		return p.Parts, p.Points, true
	}
	return nil, nil, false
}

func rings(parts []int32, points []shp.Point) []orb.Ring {
	out := make([]orb.Ring, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}

		ring := make(orb.Ring, 0, end-start+1)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}
		if len(ring) < 4 {
			continue
		}
		out = append(out, ring)
	}
	return out
}

// buildGeometry groups shapefile rings into polygons. Shapefile shells are
// clockwise and holes counter-clockwise; the result follows RFC 7946
// winding (shells counter-clockwise).
func buildGeometry(rs []orb.Ring) orb.Geometry {
	var shells []orb.Polygon
	var holes []orb.Ring
	for _, r := range rs {
		if r.Orientation() == orb.CW {
			shells = append(shells, orb.Polygon{r})
		} else {
			holes = append(holes, r)
		}
	}

	// No clockwise ring at all: the file does not follow the winding
	// convention, treat every ring as a shell.
	if len(shells) == 0 {
		for _, h := range holes {
			shells = append(shells, orb.Polygon{h})
		}
		holes = nil
	}

	for _, h := range holes {
		owner := -1
		for i, s := range shells {
			if planar.RingContains(s[0], h[0]) {
				owner = i
				break
			}
		}
		if owner < 0 {
			shells = append(shells, orb.Polygon{h})
			continue
		}
		shells[owner] = append(shells[owner], h)
	}

	for _, p := range shells {
		wind(p)
	}

	switch len(shells) {
	case 0:
		return nil
	case 1:
		return shells[0]
	default:
		return orb.MultiPolygon(shells)
	}
}

// wind orients the shell counter-clockwise and holes clockwise.
func wind(p orb.Polygon) {
	for i, r := range p {
		want := orb.CW
		if i == 0 {
			want = orb.CCW
		}
		if r.Orientation() != want {
			r.Reverse()
		}
	}
}

func cleanAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
