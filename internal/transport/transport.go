package transport

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Bus line colors and types.
const (
	BusTBColor       = "#E0C233"
	BusStandardColor = "#a3a3a3"

	BusTBType       = "bus-tb"
	BusStandardType = "bus-std"
)

// ProcessBusData colors bus lines: "TB" (trolleybus and high-frequency)
// lines in yellow, every other line in grey. The "ligne" property carries
// the line label. Input features are not modified.
func ProcessBusData(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if f == nil {
			continue
		}
		out := clone(f)

		label, _ := out.Properties["ligne"].(string)
		if strings.HasPrefix(label, "TB") {
			out.Properties["color"] = BusTBColor
			out.Properties["type"] = BusTBType
		} else {
			out.Properties["color"] = BusStandardColor
			out.Properties["type"] = BusStandardType
		}
		fc.Append(out)
	}
	return fc
}

// ProcessTransportData converts the space separated "couleur" property
// ("r g b") into a CSS color "rgb(r, g, b)". Features without it get a null
// color. Input features are not modified.
func ProcessTransportData(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if f == nil {
			continue
		}
		out := clone(f)

		couleur, _ := out.Properties["couleur"].(string)
		if couleur != "" {
			out.Properties["color"] = "rgb(" + strings.Join(strings.Fields(couleur), ", ") + ")"
		} else {
			out.Properties["color"] = nil
		}
		fc.Append(out)
	}
	return fc
}

func clone(f *geojson.Feature) *geojson.Feature {
	out := &geojson.Feature{
		ID:         f.ID,
		Type:       f.Type,
		BBox:       f.BBox,
		Properties: f.Properties.Clone(),
	}
	if f.Geometry != nil {
		out.Geometry = orb.Clone(f.Geometry)
	}
	if out.Properties == nil {
		out.Properties = make(geojson.Properties)
	}
	return out
}
