package geoarrow

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Allowed geometry extension names per layer kind. A layer renders only the
// native geometry layouts its shader understands.
var (
	scatterplotGeometry = map[string]struct{}{
		ExtensionPoint:      {},
		ExtensionMultiPoint: {},
	}
	pathGeometry = map[string]struct{}{
		ExtensionLineString:      {},
		ExtensionMultiLineString: {},
	}
	solidPolygonGeometry = map[string]struct{}{
		ExtensionPolygon:      {},
		ExtensionMultiPolygon: {},
	}
)

// GeometryColumn returns the index and field of the first column tagged with
// a native geoarrow extension name. Columns still tagged as WKB do not
// qualify; run ConvertTable first.
func GeometryColumn(table arrow.Table) (int, arrow.Field, error) {
	schema := table.Schema()
	for i := 0; i < int(table.NumCols()); i++ {
		field := schema.Field(i)
		if isGeometryExtension(parseFieldMeta(field.Metadata).ExtensionName) {
			return i, field, nil
		}
	}
	return -1, arrow.Field{}, ErrNoGeometryColumn
}

func isGeometryExtension(name string) bool {
	switch name {
	case ExtensionPoint, ExtensionLineString, ExtensionPolygon,
		ExtensionMultiPoint, ExtensionMultiLineString, ExtensionMultiPolygon:
		return true
	}
	return false
}

// ScatterplotLayer renders point and multipoint tables. Accessor arrays are
// optional per-row overrides and must match the table's row count exactly.
type ScatterplotLayer struct {
	Table arrow.Table

	RadiusUnits     string
	RadiusScale     float64
	RadiusMinPixels float64
	RadiusMaxPixels float64
	Stroked         bool
	Filled          bool
	Billboard       bool
	Antialiasing    bool

	GetRadius    *arrow.Chunked
	GetFillColor *arrow.Chunked
	GetLineColor *arrow.Chunked
	GetLineWidth *arrow.Chunked
}

func (l *ScatterplotLayer) Validate() error {
	if err := validateLayerGeometry(l.Table, scatterplotGeometry); err != nil {
		return err
	}
	return validateAccessors(l.Table, map[string]*arrow.Chunked{
		"get_radius":     l.GetRadius,
		"get_fill_color": l.GetFillColor,
		"get_line_color": l.GetLineColor,
		"get_line_width": l.GetLineWidth,
	})
}

// PathLayer renders linestring and multilinestring tables.
type PathLayer struct {
	Table arrow.Table

	WidthUnits     string
	WidthScale     float64
	WidthMinPixels float64
	WidthMaxPixels float64
	JointRounded   bool
	CapRounded     bool
	MiterLimit     int
	Billboard      bool

	GetColor *arrow.Chunked
	GetWidth *arrow.Chunked
}

func (l *PathLayer) Validate() error {
	if err := validateLayerGeometry(l.Table, pathGeometry); err != nil {
		return err
	}
	return validateAccessors(l.Table, map[string]*arrow.Chunked{
		"get_color": l.GetColor,
		"get_width": l.GetWidth,
	})
}

// SolidPolygonLayer renders polygon and multipolygon tables.
type SolidPolygonLayer struct {
	Table arrow.Table

	Filled         bool
	Extruded       bool
	Wireframe      bool
	ElevationScale float64

	GetElevation *arrow.Chunked
	GetFillColor *arrow.Chunked
	GetLineColor *arrow.Chunked
}

func (l *SolidPolygonLayer) Validate() error {
	if err := validateLayerGeometry(l.Table, solidPolygonGeometry); err != nil {
		return err
	}
	return validateAccessors(l.Table, map[string]*arrow.Chunked{
		"get_elevation":  l.GetElevation,
		"get_fill_color": l.GetFillColor,
		"get_line_color": l.GetLineColor,
	})
}

func validateLayerGeometry(table arrow.Table, allowed map[string]struct{}) error {
	_, field, err := GeometryColumn(table)
	if err != nil {
		return err
	}

	name := parseFieldMeta(field.Metadata).ExtensionName
	if _, ok := allowed[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}
	return nil
}

func validateAccessors(table arrow.Table, accessors map[string]*arrow.Chunked) error {
	for name, acc := range accessors {
		if acc == nil {
			continue
		}
		if int64(acc.Len()) != table.NumRows() {
			return fmt.Errorf("%w: %s has %d rows, table has %d",
				ErrAccessorLength, name, acc.Len(), table.NumRows())
		}
	}
	return nil
}
