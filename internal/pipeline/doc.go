// Package pipeline turns region archives into boundary files.
//
// A Processor handles one region end to end: skip when the output exists,
// fetch the archive, extract it into a scratch directory, load the
// shapefile, simplify, keep only the name attribute and write GeoJSON.
// Every failure is returned as a Failed Result so that a Runner can carry
// on with the next region.
//
// A Runner processes regions sequentially with a pause between them and
// collects a Summary.
package pipeline
