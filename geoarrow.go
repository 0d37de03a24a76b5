// Package geoarrow converts Arrow tables carrying WKB-encoded geometry
// columns into GeoArrow-native columnar layouts for the orb geometry library.
// Columns tagged with the `geoarrow.wkb` or `ogc.wkb` extension name are
// decoded and rebuilt as typed coordinate/offset arrays (point, linestring,
// polygon and their multi variants); all other columns pass through unchanged.
package geoarrow

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Arrow field metadata keys consulted and produced by this package.
const (
	ExtensionNameKey     = "ARROW:extension:name"
	ExtensionMetadataKey = "ARROW:extension:metadata"
)

// Extension type names for WKB-encoded input columns. Both are accepted.
const (
	ExtensionWKB    = "geoarrow.wkb"
	ExtensionOGCWKB = "ogc.wkb"
)

// Extension type names for native GeoArrow output columns.
const (
	ExtensionPoint           = "geoarrow.point"
	ExtensionLineString      = "geoarrow.linestring"
	ExtensionPolygon         = "geoarrow.polygon"
	ExtensionMultiPoint      = "geoarrow.multipoint"
	ExtensionMultiLineString = "geoarrow.multilinestring"
	ExtensionMultiPolygon    = "geoarrow.multipolygon"
)

// Common errors returned by this package.
var (
	ErrIncompatibleTypes = errors.New("geoarrow: incompatible geometry types in one column")
	ErrUnsupportedType   = errors.New("geoarrow: unsupported geometry type")
	ErrNoGeometries      = errors.New("geoarrow: no non-null geometries in column")
	ErrNotBinary         = errors.New("geoarrow: tagged column is not binary-typed")
	ErrChunkMismatch     = errors.New("geoarrow: chunk lengths do not consume converted array")
	ErrNoGeometryColumn  = errors.New("geoarrow: table has no geometry column")
	ErrAccessorLength    = errors.New("geoarrow: accessor length does not match table")
)

// Options configures table conversion.
type Options struct {
	Alloc    memory.Allocator // Allocator for output buffers (default: memory.DefaultAllocator)
	Parallel bool             // Convert tagged columns concurrently
}

// DefaultOptions returns default options for converting tables.
func DefaultOptions() *Options {
	return &Options{
		Alloc: memory.DefaultAllocator,
	}
}

func (o *Options) allocator() memory.Allocator {
	if o == nil || o.Alloc == nil {
		return memory.DefaultAllocator
	}
	return o.Alloc
}
