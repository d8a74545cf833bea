// Package testutils provides shared test fixtures: synthetic TIGER place
// shapefiles and archives, and, behind the integration build tag, an
// archive server and a Minio container.
package testutils
