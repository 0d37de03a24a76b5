package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"golang.org/x/sync/errgroup"
)

// ConvertTable returns a table in which every column tagged with a WKB
// extension name has been rewritten into its native GeoArrow layout.
// Untagged columns are carried over untouched and field order is preserved.
// A table without any tagged column is returned as-is. The input table is
// never mutated; on success the caller owns the returned table.
//
// Conversion is all-or-nothing: the first column that fails aborts the whole
// call with an error naming that column.
func ConvertTable(table arrow.Table, opts *Options) (arrow.Table, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	mem := opts.allocator()

	ncols := int(table.NumCols())
	fields := make([]arrow.Field, ncols)
	data := make([]*arrow.Chunked, ncols)

	var tagged []int
	for i := 0; i < ncols; i++ {
		col := table.Column(i)
		fields[i] = col.Field()
		data[i] = col.Data()

		if isWKBExtension(parseFieldMeta(fields[i].Metadata).ExtensionName) {
			tagged = append(tagged, i)
		}
	}

	if len(tagged) == 0 {
		return table, nil
	}

	convert := func(i int) error {
		field, chunked, err := ConvertColumn(mem, fields[i], data[i])
		if err != nil {
			return fmt.Errorf("geoarrow: column %q: %w", fields[i].Name, err)
		}
		fields[i] = field
		data[i] = chunked
		return nil
	}

	if opts.Parallel {
		var g errgroup.Group
		for _, i := range tagged {
			i := i
			g.Go(func() error { return convert(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, i := range tagged {
			if err := convert(i); err != nil {
				return nil, err
			}
		}
	}

	cols := make([]arrow.Column, ncols)
	for i := 0; i < ncols; i++ {
		cols[i] = *arrow.NewColumn(fields[i], data[i])
	}

	schemaMeta := table.Schema().Metadata()
	schema := arrow.NewSchema(fields, &schemaMeta)

	out := array.NewTable(schema, cols, table.NumRows())
	for i := range cols {
		cols[i].Release()
	}
	for _, i := range tagged {
		data[i].Release()
	}

	return out, nil
}
