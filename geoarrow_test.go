package geoarrow

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/require"
)

func mustWKB(t *testing.T, g orb.Geometry) []byte {
	t.Helper()
	buf, err := wkb.Marshal(g)
	require.NoError(t, err)
	return buf
}

// wkbChunk builds one binary chunk from geometries; nil entries become nulls.
func wkbChunk(t *testing.T, geoms []orb.Geometry) arrow.Array {
	t.Helper()
	bld := array.NewBinaryBuilder(memory.DefaultAllocator, arrow.BinaryTypes.Binary)
	defer bld.Release()

	for _, g := range geoms {
		if g == nil {
			bld.AppendNull()
			continue
		}
		bld.Append(mustWKB(t, g))
	}
	return bld.NewArray()
}

func wkbChunked(t *testing.T, chunks ...[]orb.Geometry) *arrow.Chunked {
	t.Helper()
	arrs := make([]arrow.Array, len(chunks))
	for i, geoms := range chunks {
		arrs[i] = wkbChunk(t, geoms)
	}
	chunked := arrow.NewChunked(arrow.BinaryTypes.Binary, arrs)
	for _, arr := range arrs {
		arr.Release()
	}
	return chunked
}

// wkbTaggedField builds a binary field tagged as WKB geometry.
func wkbTaggedField(name, tag, crs string) arrow.Field {
	return arrow.Field{
		Name:     name,
		Type:     arrow.BinaryTypes.Binary,
		Nullable: true,
		Metadata: geometryFieldMeta(tag, crs),
	}
}

func chunkLengths(chunked *arrow.Chunked) []int {
	lengths := make([]int, len(chunked.Chunks()))
	for i, chunk := range chunked.Chunks() {
		lengths[i] = chunk.Len()
	}
	return lengths
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.NotNil(t, opts)
	require.Equal(t, memory.DefaultAllocator, opts.Alloc)
	require.False(t, opts.Parallel)

	var unset *Options
	require.Equal(t, memory.DefaultAllocator, unset.allocator())
}
