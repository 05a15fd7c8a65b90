package lines

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/paulmach/orb/geojson"
)

type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// DecodeCollection decodes one line's FeatureCollection feature by feature.
// A feature that fails to decode is logged and skipped; only a broken
// envelope is an error.
func DecodeCollection(data []byte) (*geojson.FeatureCollection, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}
	if raw.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", raw.Type)
	}

	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(raw.Features))
	for i, value := range raw.Features {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			continue
		}
		f, err := geojson.UnmarshalFeature(value)
		if err != nil {
			log.Printf("Warning: skipping feature %d: %v", i, err)
			continue
		}
		fc.Append(f)
	}
	return fc, nil
}
