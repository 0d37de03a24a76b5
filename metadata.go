package geoarrow

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"
)

// fieldMeta is the parsed view of the field metadata keys this package
// consults. Absent keys parse to empty strings, never errors.
type fieldMeta struct {
	ExtensionName string
	CRS           string
}

// extensionMeta models the JSON payload stored under ARROW:extension:metadata.
// The CRS is kept raw so a serialized projection object survives verbatim.
type extensionMeta struct {
	CRS json.RawMessage `json:"crs,omitempty"`
}

// parseFieldMeta extracts the extension name and CRS from field metadata.
func parseFieldMeta(md arrow.Metadata) fieldMeta {
	var fm fieldMeta

	if i := md.FindKey(ExtensionNameKey); i >= 0 {
		fm.ExtensionName = md.Values()[i]
	}

	if i := md.FindKey(ExtensionMetadataKey); i >= 0 {
		var em extensionMeta
		if err := json.Unmarshal([]byte(md.Values()[i]), &em); err == nil {
			fm.CRS = crsString(em.CRS)
		}
	}

	return fm
}

// crsString unwraps a JSON string CRS; any other JSON value (e.g. a
// serialized projection description) is carried as its raw text.
func crsString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// geometryFieldMeta builds output field metadata for a native geometry
// column. The CRS key is omitted entirely when no CRS is known.
func geometryFieldMeta(extensionName, crs string) arrow.Metadata {
	keys := []string{ExtensionNameKey}
	values := []string{extensionName}

	if crs != "" {
		payload, err := json.Marshal(extensionMeta{CRS: crsJSON(crs)})
		if err == nil {
			keys = append(keys, ExtensionMetadataKey)
			values = append(values, string(payload))
		}
	}

	return arrow.NewMetadata(keys, values)
}

// crsJSON re-encodes a CRS string for the extension metadata payload. A CRS
// that is itself a JSON object or array is embedded as-is, round-tripping
// what crsString unwrapped.
func crsJSON(crs string) json.RawMessage {
	trimmed := strings.TrimSpace(crs)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if json.Valid([]byte(trimmed)) {
			return json.RawMessage(trimmed)
		}
	}

	enc, err := json.Marshal(crs)
	if err != nil {
		return nil
	}
	return json.RawMessage(enc)
}

// isWKBExtension reports whether an extension name marks a WKB column.
func isWKBExtension(name string) bool {
	return name == ExtensionWKB || name == ExtensionOGCWKB
}
