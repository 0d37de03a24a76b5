package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// binaryColumn is satisfied by the arrow binary array variants a WKB column
// may be stored as (Binary, LargeBinary, BinaryView).
type binaryColumn interface {
	arrow.Array
	Value(i int) []byte
}

// ConvertColumn rewrites a single WKB-tagged column into its native GeoArrow
// representation. The whole column is decoded in one batch so that type
// widening sees every chunk at once, then the flat result is re-sliced at
// the original chunk boundaries. The returned field keeps the input field's
// name and carries the geometry extension name plus the input's CRS.
func ConvertColumn(mem memory.Allocator, field arrow.Field, col *arrow.Chunked) (arrow.Field, *arrow.Chunked, error) {
	meta := parseFieldMeta(field.Metadata)

	geoms, err := decodeWKBColumn(col)
	if err != nil {
		return arrow.Field{}, nil, err
	}

	newField, flat, err := BuildGeometryArray(mem, geoms, meta.CRS)
	if err != nil {
		return arrow.Field{}, nil, err
	}
	defer flat.Release()

	newField.Name = field.Name

	lengths := make([]int64, len(col.Chunks()))
	for i, chunk := range col.Chunks() {
		lengths[i] = int64(chunk.Len())
	}

	chunked, err := rechunk(flat, lengths)
	if err != nil {
		return arrow.Field{}, nil, err
	}

	return newField, chunked, nil
}

// decodeWKBColumn decodes every payload of every chunk into orb geometries.
// Null or empty payloads decode to nil geometries; a payload that fails to
// decode fails the whole column.
func decodeWKBColumn(col *arrow.Chunked) ([]orb.Geometry, error) {
	geoms := make([]orb.Geometry, 0, col.Len())

	row := 0
	for _, chunk := range col.Chunks() {
		bin, ok := chunk.(binaryColumn)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotBinary, chunk.DataType())
		}

		for i := 0; i < bin.Len(); i++ {
			if bin.IsNull(i) || len(bin.Value(i)) == 0 {
				geoms = append(geoms, nil)
				row++
				continue
			}

			g, err := wkb.Unmarshal(bin.Value(i))
			if err != nil {
				return nil, fmt.Errorf("geoarrow: decode wkb at row %d: %w", row, err)
			}
			geoms = append(geoms, g)
			row++
		}
	}

	return geoms, nil
}

// rechunk slices a flat array into chunks of the given lengths. The lengths
// must exactly consume the array; anything else is an internal invariant
// violation, never truncated or padded.
func rechunk(flat arrow.Array, lengths []int64) (*arrow.Chunked, error) {
	var total int64
	for _, n := range lengths {
		total += n
	}
	if total != int64(flat.Len()) {
		return nil, fmt.Errorf("%w: chunks sum to %d, array has %d rows",
			ErrChunkMismatch, total, flat.Len())
	}

	chunks := make([]arrow.Array, len(lengths))
	var offset int64
	for i, n := range lengths {
		chunks[i] = array.NewSlice(flat, offset, offset+n)
		offset += n
	}

	chunked := arrow.NewChunked(flat.DataType(), chunks)
	for _, chunk := range chunks {
		chunk.Release()
	}

	return chunked, nil
}
