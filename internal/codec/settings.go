package codec

import (
	"fmt"

	"github.com/dyluth/easel/pkg/document"
)

// Settings records are tiny and fixed-shape: one record holds the canvas
// dimensions, another the named preset. They live under separate document
// keys so a partial remote update only touches the keys it names.

// DimensionsToRecord encodes canvas dimensions.
func DimensionsToRecord(width, height int) document.Record {
	return document.Record{
		"width":  float64(width),
		"height": float64(height),
	}
}

// RecordToDimensions decodes a dimensions record.
func RecordToDimensions(rec document.Record) (width, height int, err error) {
	w, ok := rec["width"]
	if !ok {
		return 0, 0, fmt.Errorf("dimensions record has no width")
	}
	h, ok := rec["height"]
	if !ok {
		return 0, 0, fmt.Errorf("dimensions record has no height")
	}
	return int(floatValue(w)), int(floatValue(h)), nil
}

// PresetToRecord encodes the named preset.
func PresetToRecord(preset string) document.Record {
	return document.Record{"value": preset}
}

// RecordToPreset decodes a preset record.
func RecordToPreset(rec document.Record) (string, error) {
	v, ok := rec["value"].(string)
	if !ok {
		return "", fmt.Errorf("preset record has no value")
	}
	return v, nil
}
