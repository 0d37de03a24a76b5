package geoarrow

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
)

// Child field names follow the GeoArrow layout conventions.
var (
	xyField          = arrow.Field{Name: "xy", Type: arrow.PrimitiveTypes.Float64}
	verticesField    = arrow.Field{Name: "vertices", Type: arrow.FixedSizeListOfField(2, xyField)}
	ringsField       = arrow.Field{Name: "rings", Type: arrow.ListOfField(verticesField)}
	pointsField      = arrow.Field{Name: "points", Type: arrow.FixedSizeListOfField(2, xyField)}
	linestringsField = arrow.Field{Name: "linestrings", Type: arrow.ListOfField(verticesField)}
	polygonsField    = arrow.Field{Name: "polygons", Type: arrow.ListOfField(ringsField)}
)

// BuildGeometryArray constructs a native GeoArrow array from decoded
// geometries. The layout type is determined once over the whole slice:
// a homogeneous input builds its own layout, a single type mixed with its
// multi variant widens to the multi variant, and any other mix fails.
// Nil geometries become null rows. The returned field carries the geometry
// extension name and, when crs is non-empty, the CRS metadata.
func BuildGeometryArray(mem memory.Allocator, geoms []orb.Geometry, crs string) (arrow.Field, arrow.Array, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	geomType, err := commonGeometryType(geoms)
	if err != nil {
		return arrow.Field{}, nil, err
	}

	var arr arrow.Array
	switch geomType {
	case TypePoint:
		arr = buildPoints(mem, geoms)
	case TypeLineString:
		arr = buildLineStrings(mem, geoms)
	case TypePolygon:
		arr = buildPolygons(mem, geoms)
	case TypeMultiPoint:
		arr = buildMultiPoints(mem, geoms)
	case TypeMultiLineString:
		arr = buildMultiLineStrings(mem, geoms)
	case TypeMultiPolygon:
		arr = buildMultiPolygons(mem, geoms)
	}

	field := arrow.Field{
		Name:     "geometry",
		Type:     arr.DataType(),
		Nullable: true,
		Metadata: geometryFieldMeta(geomType.String(), crs),
	}

	return field, arr, nil
}

func buildPoints(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewFixedSizeListBuilderWithField(mem, 2, xyField)
	defer bld.Release()

	coords := bld.ValueBuilder().(*array.Float64Builder)
	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}
		appendCoord(bld, coords, g.(orb.Point))
	}

	return bld.NewArray()
}

func buildMultiPoints(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewListBuilderWithField(mem, pointsField)
	defer bld.Release()

	points := bld.ValueBuilder().(*array.FixedSizeListBuilder)
	coords := points.ValueBuilder().(*array.Float64Builder)

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}

		bld.Append(true)
		switch v := g.(type) {
		case orb.Point:
			appendCoord(points, coords, v)
		case orb.MultiPoint:
			for _, p := range v {
				appendCoord(points, coords, p)
			}
		}
	}

	return bld.NewArray()
}

func buildLineStrings(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewListBuilderWithField(mem, verticesField)
	defer bld.Release()

	vertices := bld.ValueBuilder().(*array.FixedSizeListBuilder)
	coords := vertices.ValueBuilder().(*array.Float64Builder)

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}

		bld.Append(true)
		appendLineString(vertices, coords, g.(orb.LineString))
	}

	return bld.NewArray()
}

func buildMultiLineStrings(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewListBuilderWithField(mem, linestringsField)
	defer bld.Release()

	lines := bld.ValueBuilder().(*array.ListBuilder)
	vertices := lines.ValueBuilder().(*array.FixedSizeListBuilder)
	coords := vertices.ValueBuilder().(*array.Float64Builder)

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}

		bld.Append(true)
		switch v := g.(type) {
		case orb.LineString:
			lines.Append(true)
			appendLineString(vertices, coords, v)
		case orb.MultiLineString:
			for _, ls := range v {
				lines.Append(true)
				appendLineString(vertices, coords, ls)
			}
		}
	}

	return bld.NewArray()
}

func buildPolygons(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewListBuilderWithField(mem, ringsField)
	defer bld.Release()

	rings := bld.ValueBuilder().(*array.ListBuilder)
	vertices := rings.ValueBuilder().(*array.FixedSizeListBuilder)
	coords := vertices.ValueBuilder().(*array.Float64Builder)

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}

		bld.Append(true)
		poly, _ := asPolygon(g)
		appendPolygon(rings, vertices, coords, poly)
	}

	return bld.NewArray()
}

func buildMultiPolygons(mem memory.Allocator, geoms []orb.Geometry) arrow.Array {
	bld := array.NewListBuilderWithField(mem, polygonsField)
	defer bld.Release()

	polygons := bld.ValueBuilder().(*array.ListBuilder)
	rings := polygons.ValueBuilder().(*array.ListBuilder)
	vertices := rings.ValueBuilder().(*array.FixedSizeListBuilder)
	coords := vertices.ValueBuilder().(*array.Float64Builder)

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}

		bld.Append(true)
		if poly, ok := asPolygon(g); ok {
			polygons.Append(true)
			appendPolygon(rings, vertices, coords, poly)
			continue
		}

		for _, poly := range g.(orb.MultiPolygon) {
			polygons.Append(true)
			appendPolygon(rings, vertices, coords, poly)
		}
	}

	return bld.NewArray()
}

func appendCoord(vertices *array.FixedSizeListBuilder, coords *array.Float64Builder, p orb.Point) {
	vertices.Append(true)
	coords.Append(p[0])
	coords.Append(p[1])
}

func appendLineString(vertices *array.FixedSizeListBuilder, coords *array.Float64Builder, ls orb.LineString) {
	for _, p := range ls {
		appendCoord(vertices, coords, p)
	}
}

func appendPolygon(rings *array.ListBuilder, vertices *array.FixedSizeListBuilder, coords *array.Float64Builder, poly orb.Polygon) {
	for _, ring := range poly {
		rings.Append(true)
		for _, p := range ring {
			appendCoord(vertices, coords, p)
		}
	}
}
