package geoarrow

import (
	"fmt"

	"github.com/paulmach/orb"
)

// GeometryType is the closed set of geometry layouts this package can build.
type GeometryType int

const (
	TypeUnknown GeometryType = iota
	TypePoint
	TypeLineString
	TypePolygon
	TypeMultiPoint
	TypeMultiLineString
	TypeMultiPolygon
)

// String returns the GeoArrow extension name for the type.
func (t GeometryType) String() string {
	switch t {
	case TypePoint:
		return ExtensionPoint
	case TypeLineString:
		return ExtensionLineString
	case TypePolygon:
		return ExtensionPolygon
	case TypeMultiPoint:
		return ExtensionMultiPoint
	case TypeMultiLineString:
		return ExtensionMultiLineString
	case TypeMultiPolygon:
		return ExtensionMultiPolygon
	default:
		return "geoarrow.unknown"
	}
}

// geometryTypeOf maps an orb.Geometry to its layout type. Rings and bounds
// are representable as polygons; collections have no single-type layout.
func geometryTypeOf(geom orb.Geometry) GeometryType {
	switch geom.(type) {
	case orb.Point:
		return TypePoint
	case orb.MultiPoint:
		return TypeMultiPoint
	case orb.LineString:
		return TypeLineString
	case orb.MultiLineString:
		return TypeMultiLineString
	case orb.Ring:
		return TypePolygon
	case orb.Polygon:
		return TypePolygon
	case orb.MultiPolygon:
		return TypeMultiPolygon
	case orb.Bound:
		return TypePolygon
	default:
		return TypeUnknown
	}
}

// multiVariant returns the widened multi type for a single type, or the type
// itself if it is already a multi variant.
func multiVariant(t GeometryType) GeometryType {
	switch t {
	case TypePoint:
		return TypeMultiPoint
	case TypeLineString:
		return TypeMultiLineString
	case TypePolygon:
		return TypeMultiPolygon
	default:
		return t
	}
}

// commonGeometryType determines the single layout type able to hold every
// non-nil geometry in geoms. A single type maps to itself; a type mixed with
// its multi variant widens to the multi variant. Any other mix has no common
// layout and fails with ErrIncompatibleTypes. A slice with no non-nil
// geometry fails with ErrNoGeometries since no type can be determined.
func commonGeometryType(geoms []orb.Geometry) (GeometryType, error) {
	common := TypeUnknown

	for _, g := range geoms {
		if g == nil {
			continue
		}

		t := geometryTypeOf(g)
		if t == TypeUnknown {
			return TypeUnknown, fmt.Errorf("%w: %s", ErrUnsupportedType, g.GeoJSONType())
		}

		switch {
		case common == TypeUnknown:
			common = t
		case t == common:
		case multiVariant(t) == common:
		case multiVariant(common) == t:
			common = t
		default:
			return TypeUnknown, fmt.Errorf("%w: %s and %s", ErrIncompatibleTypes, common, t)
		}
	}

	if common == TypeUnknown {
		return TypeUnknown, ErrNoGeometries
	}

	return common, nil
}

// asPolygon normalizes the polygon-representable orb types.
func asPolygon(geom orb.Geometry) (orb.Polygon, bool) {
	switch v := geom.(type) {
	case orb.Polygon:
		return v, true
	case orb.Ring:
		return orb.Polygon{v}, true
	case orb.Bound:
		return boundToPolygon(v), true
	default:
		return nil, false
	}
}

// boundToPolygon converts a bound to a closed rectangular ring.
func boundToPolygon(b orb.Bound) orb.Polygon {
	return orb.Polygon{
		orb.Ring{
			{b.Min[0], b.Min[1]},
			{b.Max[0], b.Min[1]},
			{b.Max[0], b.Max[1]},
			{b.Min[0], b.Max[1]},
			{b.Min[0], b.Min[1]},
		},
	}
}
