package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// ReadFlatGeobuf reads a FlatGeobuf file into an Arrow table whose geometry
// column is WKB-encoded and tagged `geoarrow.wkb`, ready for ConvertTable.
// Property columns are materialized alongside the geometry column using the
// file's column schema. The file must carry a spatial index; files without
// one cannot be iterated by the underlying reader.
func ReadFlatGeobuf(path string, opts *Options) (arrow.Table, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, err
	}
	return fgbToTable(fgb, opts)
}

// ReadFlatGeobufData reads FlatGeobuf bytes into an Arrow table.
// See ReadFlatGeobuf.
func ReadFlatGeobufData(data []byte, opts *Options) (arrow.Table, error) {
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, err
	}
	return fgbToTable(fgb, opts)
}

func fgbToTable(fgb *flatgeobuf.FlatGeoBuf, opts *Options) (arrow.Table, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	mem := opts.allocator()

	header := fgb.Header()
	features, err := fgbFeatures(fgb, header)
	if err != nil {
		return nil, err
	}

	geomField, geomArr, err := fgbGeometryColumn(mem, features, header)
	if err != nil {
		return nil, err
	}
	defer geomArr.Release()

	fields := []arrow.Field{geomField}
	arrs := []arrow.Array{geomArr}

	propFields, propArrs, err := fgbPropertyColumns(mem, features, header)
	if err != nil {
		return nil, err
	}
	fields = append(fields, propFields...)
	arrs = append(arrs, propArrs...)

	cols := make([]arrow.Column, len(fields))
	for i := range fields {
		cols[i] = arrow.NewColumnFromArr(fields[i], arrs[i])
	}
	for _, arr := range propArrs {
		arr.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	tbl := array.NewTable(schema, cols, int64(len(features)))
	for i := range cols {
		cols[i].Release()
	}

	return tbl, nil
}

// fgbFeatures iterates every feature by searching the full header envelope.
func fgbFeatures(fgb *flatgeobuf.FlatGeoBuf, header *flattypes.Header) ([]*flattypes.Feature, error) {
	if header.FeaturesCount() == 0 {
		return nil, nil
	}
	if header.IndexNodeSize() == 0 || header.EnvelopeLength() < 4 {
		return nil, fmt.Errorf("geoarrow: flatgeobuf file has no spatial index or envelope")
	}

	return fgb.Search(header.Envelope(0), header.Envelope(1), header.Envelope(2), header.Envelope(3))
}

// fgbGeometryColumn WKB-encodes each feature's geometry into a tagged
// binary column. Features without geometry become null rows.
func fgbGeometryColumn(mem memory.Allocator, features []*flattypes.Feature, header *flattypes.Header) (arrow.Field, arrow.Array, error) {
	bld := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer bld.Release()

	for _, f := range features {
		var raw flattypes.Geometry
		geom := fgbGeometry(f.Geometry(&raw), header.GeometryType())
		if geom == nil {
			bld.AppendNull()
			continue
		}

		buf, err := wkb.Marshal(geom)
		if err != nil {
			return arrow.Field{}, nil, fmt.Errorf("geoarrow: encode wkb: %w", err)
		}
		bld.Append(buf)
	}

	field := arrow.Field{
		Name:     "geometry",
		Type:     arrow.BinaryTypes.Binary,
		Nullable: true,
		Metadata: geometryFieldMeta(ExtensionWKB, fgbCRS(header)),
	}

	return field, bld.NewArray(), nil
}

// fgbCRS renders the header CRS as an authority:code pair. An unset CRS
// yields an empty string so the metadata key is omitted downstream.
func fgbCRS(header *flattypes.Header) string {
	var crs flattypes.Crs
	if header.Crs(&crs) == nil || crs.Code() == 0 {
		return ""
	}

	org := string(crs.Org())
	if org == "" {
		org = "EPSG"
	}
	return fmt.Sprintf("%s:%d", org, crs.Code())
}

// fgbGeometry converts a FlatGeobuf geometry record into an orb.Geometry.
// Files with a uniform geometry type omit the per-feature type, so the
// header type is used as a fallback.
func fgbGeometry(raw *flattypes.Geometry, headerType flattypes.GeometryType) orb.Geometry {
	if raw == nil {
		return nil
	}

	geomType := raw.Type()
	if geomType == flattypes.GeometryTypeUnknown {
		geomType = headerType
	}

	switch geomType {
	case flattypes.GeometryTypePoint:
		pts := fgbCoords(raw)
		if len(pts) == 0 {
			return nil
		}
		return pts[0]
	case flattypes.GeometryTypeMultiPoint:
		return orb.MultiPoint(fgbCoords(raw))
	case flattypes.GeometryTypeLineString:
		return orb.LineString(fgbCoords(raw))
	case flattypes.GeometryTypeMultiLineString:
		parts := fgbSplitEnds(raw)
		mls := make(orb.MultiLineString, len(parts))
		for i, part := range parts {
			mls[i] = orb.LineString(part)
		}
		return mls
	case flattypes.GeometryTypePolygon:
		return fgbPolygon(raw)
	case flattypes.GeometryTypeMultiPolygon:
		n := raw.PartsLength()
		if n == 0 {
			return orb.MultiPolygon{fgbPolygon(raw)}
		}
		mp := make(orb.MultiPolygon, 0, n)
		for i := 0; i < n; i++ {
			var part flattypes.Geometry
			if raw.Parts(&part, i) {
				mp = append(mp, fgbPolygon(&part))
			}
		}
		return mp
	default:
		return nil
	}
}

func fgbPolygon(raw *flattypes.Geometry) orb.Polygon {
	parts := fgbSplitEnds(raw)
	poly := make(orb.Polygon, len(parts))
	for i, part := range parts {
		poly[i] = orb.Ring(part)
	}
	return poly
}

// fgbCoords reads the interleaved xy buffer as points.
func fgbCoords(raw *flattypes.Geometry) []orb.Point {
	n := raw.XyLength() / 2
	pts := make([]orb.Point, n)
	for i := 0; i < n; i++ {
		pts[i] = orb.Point{raw.Xy(2 * i), raw.Xy(2*i + 1)}
	}
	return pts
}

// fgbSplitEnds splits the xy buffer at the cumulative ends offsets.
// A missing ends array means a single part.
func fgbSplitEnds(raw *flattypes.Geometry) [][]orb.Point {
	pts := fgbCoords(raw)
	nEnds := raw.EndsLength()
	if nEnds == 0 {
		if len(pts) == 0 {
			return nil
		}
		return [][]orb.Point{pts}
	}

	parts := make([][]orb.Point, 0, nEnds)
	start := uint32(0)
	for i := 0; i < nEnds; i++ {
		end := raw.Ends(i)
		if end > uint32(len(pts)) {
			end = uint32(len(pts))
		}
		parts = append(parts, pts[start:end])
		start = end
	}
	return parts
}
