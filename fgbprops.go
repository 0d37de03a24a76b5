package geoarrow

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
)

// fgbPropertyColumns materializes one Arrow column per column in the
// FlatGeobuf schema. Properties absent from a feature's blob become nulls.
func fgbPropertyColumns(mem memory.Allocator, features []*flattypes.Feature, header *flattypes.Header) ([]arrow.Field, []arrow.Array, error) {
	ncols := header.ColumnsLength()
	if ncols == 0 {
		return nil, nil, nil
	}

	names := make([]string, ncols)
	types := make([]flattypes.ColumnType, ncols)
	builders := make([]array.Builder, ncols)
	for i := 0; i < ncols; i++ {
		var col flattypes.Column
		if !header.Columns(&col, i) {
			continue
		}
		names[i] = string(col.Name())
		types[i] = col.Type()
		builders[i] = array.NewBuilder(mem, fgbArrowType(col.Type()))
	}
	defer func() {
		for _, b := range builders {
			if b != nil {
				b.Release()
			}
		}
	}()

	vals := make([]any, ncols)
	for _, f := range features {
		for i := range vals {
			vals[i] = nil
		}
		decodeFGBProperties(fgbPropertyBytes(f), types, vals)

		for i, b := range builders {
			if b == nil {
				continue
			}
			if vals[i] == nil {
				b.AppendNull()
				continue
			}
			appendFGBValue(b, vals[i])
		}
	}

	fields := make([]arrow.Field, 0, ncols)
	arrs := make([]arrow.Array, 0, ncols)
	for i, b := range builders {
		if b == nil {
			continue
		}
		fields = append(fields, arrow.Field{
			Name:     names[i],
			Type:     fgbArrowType(types[i]),
			Nullable: true,
		})
		arrs = append(arrs, b.NewArray())
	}

	return fields, arrs, nil
}

// fgbArrowType maps a FlatGeobuf column type to its Arrow storage type.
func fgbArrowType(t flattypes.ColumnType) arrow.DataType {
	switch t {
	case flattypes.ColumnTypeBool:
		return arrow.FixedWidthTypes.Boolean
	case flattypes.ColumnTypeByte:
		return arrow.PrimitiveTypes.Int8
	case flattypes.ColumnTypeUByte:
		return arrow.PrimitiveTypes.Uint8
	case flattypes.ColumnTypeShort:
		return arrow.PrimitiveTypes.Int16
	case flattypes.ColumnTypeUShort:
		return arrow.PrimitiveTypes.Uint16
	case flattypes.ColumnTypeInt:
		return arrow.PrimitiveTypes.Int32
	case flattypes.ColumnTypeUInt:
		return arrow.PrimitiveTypes.Uint32
	case flattypes.ColumnTypeLong:
		return arrow.PrimitiveTypes.Int64
	case flattypes.ColumnTypeULong:
		return arrow.PrimitiveTypes.Uint64
	case flattypes.ColumnTypeFloat:
		return arrow.PrimitiveTypes.Float32
	case flattypes.ColumnTypeDouble:
		return arrow.PrimitiveTypes.Float64
	case flattypes.ColumnTypeBinary:
		return arrow.BinaryTypes.Binary
	default:
		// String, DateTime and Json columns all land as strings.
		return arrow.BinaryTypes.String
	}
}

func fgbPropertyBytes(f *flattypes.Feature) []byte {
	n := f.PropertiesLength()
	if n == 0 {
		return nil
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(f.Properties(i))
	}
	return buf
}

// decodeFGBProperties walks a property blob of [uint16 column index][value]
// pairs, filling vals by column index. Variable-length values carry a
// uint32 length prefix. Decoding stops at the first malformed entry.
func decodeFGBProperties(data []byte, types []flattypes.ColumnType, vals []any) {
	offset := 0
	for offset+2 <= len(data) {
		idx := int(binary.LittleEndian.Uint16(data[offset:]))
		offset += 2
		if idx >= len(types) {
			return
		}

		val, n := readFGBValue(data[offset:], types[idx])
		if n == 0 {
			return
		}
		offset += n
		vals[idx] = val
	}
}

func readFGBValue(data []byte, t flattypes.ColumnType) (any, int) {
	switch t {
	case flattypes.ColumnTypeBool:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0] != 0, 1
	case flattypes.ColumnTypeByte:
		if len(data) < 1 {
			return nil, 0
		}
		return int8(data[0]), 1
	case flattypes.ColumnTypeUByte:
		if len(data) < 1 {
			return nil, 0
		}
		return data[0], 1
	case flattypes.ColumnTypeShort:
		if len(data) < 2 {
			return nil, 0
		}
		return int16(binary.LittleEndian.Uint16(data)), 2
	case flattypes.ColumnTypeUShort:
		if len(data) < 2 {
			return nil, 0
		}
		return binary.LittleEndian.Uint16(data), 2
	case flattypes.ColumnTypeInt:
		if len(data) < 4 {
			return nil, 0
		}
		return int32(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeUInt:
		if len(data) < 4 {
			return nil, 0
		}
		return binary.LittleEndian.Uint32(data), 4
	case flattypes.ColumnTypeLong:
		if len(data) < 8 {
			return nil, 0
		}
		return int64(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeULong:
		if len(data) < 8 {
			return nil, 0
		}
		return binary.LittleEndian.Uint64(data), 8
	case flattypes.ColumnTypeFloat:
		if len(data) < 4 {
			return nil, 0
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), 4
	case flattypes.ColumnTypeDouble:
		if len(data) < 8 {
			return nil, 0
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), 8
	case flattypes.ColumnTypeBinary:
		buf, n := readFGBBytes(data)
		if n == 0 {
			return nil, 0
		}
		return buf, n
	default:
		buf, n := readFGBBytes(data)
		if n == 0 {
			return nil, 0
		}
		return string(buf), n
	}
}

// readFGBBytes reads a uint32 length-prefixed byte payload.
func readFGBBytes(data []byte) ([]byte, int) {
	if len(data) < 4 {
		return nil, 0
	}
	size := int(binary.LittleEndian.Uint32(data))
	if len(data) < 4+size {
		return nil, 0
	}
	return data[4 : 4+size], 4 + size
}

func appendFGBValue(bld array.Builder, val any) {
	switch b := bld.(type) {
	case *array.BooleanBuilder:
		b.Append(val.(bool))
	case *array.Int8Builder:
		b.Append(val.(int8))
	case *array.Uint8Builder:
		b.Append(val.(uint8))
	case *array.Int16Builder:
		b.Append(val.(int16))
	case *array.Uint16Builder:
		b.Append(val.(uint16))
	case *array.Int32Builder:
		b.Append(val.(int32))
	case *array.Uint32Builder:
		b.Append(val.(uint32))
	case *array.Int64Builder:
		b.Append(val.(int64))
	case *array.Uint64Builder:
		b.Append(val.(uint64))
	case *array.Float32Builder:
		b.Append(val.(float32))
	case *array.Float64Builder:
		b.Append(val.(float64))
	case *array.StringBuilder:
		b.Append(val.(string))
	case *array.BinaryBuilder:
		b.Append(val.([]byte))
	default:
		bld.AppendNull()
	}
}
