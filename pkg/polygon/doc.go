// ABOUTME: Polygon dataset package for the static map demo
// ABOUTME: Reads raw point/length arrays, colours polygons and rasterizes them
// Package polygon prepares flat polygon datasets for rendering.
//
// A dataset is two headerless little-endian files: float64 coordinate pairs
// and uint32 per-polygon vertex counts. Build turns them into the three
// arrays a polygon visual consumes:
//
//	pos     [][3]float64   projected x, y, 0 per vertex
//	length  []uint32       vertex count per polygon
//	color   []color.RGBA   one colour per polygon
//
// Upload hands the arrays to any Visual; Raster is a Visual that fills the
// polygons into a PNG.
package polygon
