// Package boundary loads place boundaries from shapefiles, simplifies
// them and writes them as GeoJSON.
//
// A Table mirrors the shapefile: one Feature per record with its polygon
// geometry and all DBF attributes as strings. The pipeline mutates it in
// place:
//
//	t, err := boundary.Load(shpPath)
//	t.Simplify(0.001)
//	err = t.Project("NAME", "name")
//	size, err := t.WriteGeoJSON("massachusetts_boundaries.geojson")
//
// Output rings follow RFC 7946 winding: shells counter-clockwise, holes
// clockwise.
package boundary
