package geoarrow

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func makeTable(t *testing.T, fields []arrow.Field, data []*arrow.Chunked) arrow.Table {
	t.Helper()
	cols := make([]arrow.Column, len(fields))
	for i := range fields {
		cols[i] = *arrow.NewColumn(fields[i], data[i])
	}
	tbl := array.NewTable(arrow.NewSchema(fields, nil), cols, int64(data[0].Len()))
	for i := range cols {
		cols[i].Release()
	}
	return tbl
}

func stringChunked(t *testing.T, chunks ...[]string) *arrow.Chunked {
	t.Helper()
	arrs := make([]arrow.Array, len(chunks))
	for i, vals := range chunks {
		bld := array.NewStringBuilder(memory.DefaultAllocator)
		for _, v := range vals {
			bld.Append(v)
		}
		arrs[i] = bld.NewArray()
		bld.Release()
	}
	chunked := arrow.NewChunked(arrow.BinaryTypes.String, arrs)
	for _, arr := range arrs {
		arr.Release()
	}
	return chunked
}

func TestConvertTable_Identity(t *testing.T) {
	names := stringChunked(t, []string{"a", "b"})
	defer names.Release()

	tbl := makeTable(t,
		[]arrow.Field{{Name: "name", Type: arrow.BinaryTypes.String}},
		[]*arrow.Chunked{names},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, nil)
	require.NoError(t, err)
	require.Same(t, tbl, out, "untagged tables pass through unchanged")
}

func TestConvertTable_PointColumn(t *testing.T) {
	// One column "geom" tagged with the generic wkb tag, two chunks of
	// lengths [3, 2], each payload a 2D point.
	names := stringChunked(t, []string{"a", "b", "c"}, []string{"d", "e"})
	defer names.Release()
	geoms := wkbChunked(t,
		[]orb.Geometry{orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}},
		[]orb.Geometry{orb.Point{3, 3}, orb.Point{4, 4}},
	)
	defer geoms.Release()

	tbl := makeTable(t,
		[]arrow.Field{
			{Name: "name", Type: arrow.BinaryTypes.String},
			wkbTaggedField("geom", ExtensionWKB, "EPSG:4326"),
		},
		[]*arrow.Chunked{names, geoms},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, nil)
	require.NoError(t, err)
	defer out.Release()

	require.EqualValues(t, 5, out.NumRows())
	require.EqualValues(t, 2, out.NumCols())
	require.Equal(t, "name", out.Schema().Field(0).Name)
	require.Equal(t, "geom", out.Schema().Field(1).Name)

	// Untouched column carries through as-is.
	require.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, out.Column(0).DataType()))

	geomCol := out.Column(1)
	meta := parseFieldMeta(geomCol.Field().Metadata)
	require.Equal(t, ExtensionPoint, meta.ExtensionName)
	require.Equal(t, "EPSG:4326", meta.CRS)
	require.Equal(t, []int{3, 2}, chunkLengths(geomCol.Data()))

	total := 0
	for _, chunk := range geomCol.Data().Chunks() {
		total += chunk.Len()
	}
	require.Equal(t, 5, total, "5 coordinate pairs in all")
}

func TestConvertTable_NoCRS(t *testing.T) {
	geoms := wkbChunked(t, []orb.Geometry{orb.Point{0, 0}})
	defer geoms.Release()

	tbl := makeTable(t,
		[]arrow.Field{wkbTaggedField("geom", ExtensionWKB, "")},
		[]*arrow.Chunked{geoms},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, nil)
	require.NoError(t, err)
	defer out.Release()

	md := out.Schema().Field(0).Metadata
	require.Less(t, md.FindKey(ExtensionMetadataKey), 0, "no crs key when input had none")
}

func TestConvertTable_WidensAcrossChunks(t *testing.T) {
	// Chunk 1 holds a MultiPoint, chunk 2 only Points: the whole column
	// widens to MultiPoint while chunk lengths stay [3, 2].
	geoms := wkbChunked(t,
		[]orb.Geometry{orb.MultiPoint{{0, 0}, {1, 1}}, orb.Point{2, 2}, orb.Point{3, 3}},
		[]orb.Geometry{orb.Point{4, 4}, orb.Point{5, 5}},
	)
	defer geoms.Release()

	tbl := makeTable(t,
		[]arrow.Field{wkbTaggedField("geom", ExtensionWKB, "")},
		[]*arrow.Chunked{geoms},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, nil)
	require.NoError(t, err)
	defer out.Release()

	meta := parseFieldMeta(out.Schema().Field(0).Metadata)
	require.Equal(t, ExtensionMultiPoint, meta.ExtensionName)
	require.Equal(t, []int{3, 2}, chunkLengths(out.Column(0).Data()))
}

func TestConvertTable_OGCTag(t *testing.T) {
	geoms := wkbChunked(t, []orb.Geometry{orb.Point{1, 2}})
	defer geoms.Release()

	tbl := makeTable(t,
		[]arrow.Field{wkbTaggedField("geom", ExtensionOGCWKB, "")},
		[]*arrow.Chunked{geoms},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, nil)
	require.NoError(t, err)
	defer out.Release()

	meta := parseFieldMeta(out.Schema().Field(0).Metadata)
	require.Equal(t, ExtensionPoint, meta.ExtensionName)
}

func TestConvertTable_IncompatibleColumnNamed(t *testing.T) {
	geoms := wkbChunked(t, []orb.Geometry{orb.Point{1, 2}, orb.LineString{{0, 0}, {1, 1}}})
	defer geoms.Release()

	tbl := makeTable(t,
		[]arrow.Field{wkbTaggedField("mixed_geom", ExtensionWKB, "")},
		[]*arrow.Chunked{geoms},
	)
	defer tbl.Release()

	_, err := ConvertTable(tbl, nil)
	require.ErrorIs(t, err, ErrIncompatibleTypes)
	require.Contains(t, err.Error(), `"mixed_geom"`)
}

func TestConvertTable_Parallel(t *testing.T) {
	geomsA := wkbChunked(t,
		[]orb.Geometry{orb.Point{0, 0}, orb.Point{1, 1}},
		[]orb.Geometry{orb.Point{2, 2}},
	)
	defer geomsA.Release()
	geomsB := wkbChunked(t,
		[]orb.Geometry{
			orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			orb.MultiPolygon{{{{0, 0}, {2, 0}, {2, 2}, {0, 0}}}},
			nil,
		},
	)
	defer geomsB.Release()

	tbl := makeTable(t,
		[]arrow.Field{
			wkbTaggedField("centers", ExtensionWKB, "EPSG:3857"),
			wkbTaggedField("areas", ExtensionOGCWKB, ""),
		},
		[]*arrow.Chunked{geomsA, geomsB},
	)
	defer tbl.Release()

	out, err := ConvertTable(tbl, &Options{Alloc: memory.DefaultAllocator, Parallel: true})
	require.NoError(t, err)
	defer out.Release()

	centers := parseFieldMeta(out.Schema().Field(0).Metadata)
	require.Equal(t, ExtensionPoint, centers.ExtensionName)
	require.Equal(t, "EPSG:3857", centers.CRS)
	require.Equal(t, []int{2, 1}, chunkLengths(out.Column(0).Data()))

	areas := parseFieldMeta(out.Schema().Field(1).Metadata)
	require.Equal(t, ExtensionMultiPolygon, areas.ExtensionName)
	require.True(t, out.Column(1).Data().Chunks()[0].IsNull(2))
}
