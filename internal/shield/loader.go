package shield

import (
	"fmt"
	"image"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

// LinePrefix prefixes every Voies Lyonnaises icon id.
const LinePrefix = "line-shield-"

// LineIconID is the atlas id of a single-line shield.
func LineIconID(line int) string {
	return LinePrefix + strconv.Itoa(line)
}

// CompositeIconID is the atlas id of a composite shield.
func CompositeIconID(key string) string {
	return LinePrefix + key
}

// TransportIconID is the atlas id of a transit network shield.
func TransportIconID(prefix, label string) string {
	return prefix + "-shield-" + label
}

// LoadShieldIcons registers the single-line shields for lines 1..totalLines
// and the composite shields used by features. Ids already present are left
// alone. Returns the number of images added.
func LoadShieldIcons(atlas Atlas, features []lines.Segment, palette lines.Palette, totalLines int) (int, error) {
	added := 0

	for line := 1; line <= totalLines; line++ {
		id := LineIconID(line)
		if atlas.HasImage(id) {
			continue
		}
		fill, _ := palette.Color(line)
		if err := register(atlas, id, LineShield(strconv.Itoa(line), fill)); err != nil {
			return added, err
		}
		added++
	}

	for _, key := range lines.UsedCompositeIcons(features) {
		id := CompositeIconID(key)
		if atlas.HasImage(id) {
			continue
		}
		lineNumbers, err := lines.ParseCompositeKey(key)
		if err != nil {
			return added, err
		}
		img := CompositeShield(lineNumbers, palette.Colors(lineNumbers))
		if img == nil {
			continue
		}
		if err := register(atlas, id, img); err != nil {
			return added, err
		}
		added++
	}

	return added, nil
}

// LoadTransportShieldIcons registers one shield per distinct "ligne" label
// of a transit network, colored by the feature's "color" property. Features
// without a label or a color are ignored; the last color seen for a label
// wins.
func LoadTransportShieldIcons(atlas Atlas, features []*geojson.Feature, prefix string) (int, error) {
	colors := make(map[string]string)
	for _, f := range features {
		if f == nil {
			continue
		}
		label, _ := f.Properties["ligne"].(string)
		fill, _ := f.Properties["color"].(string)
		if label != "" && fill != "" {
			colors[label] = fill
		}
	}

	labels := make([]string, 0, len(colors))
	for label := range colors {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	added := 0
	for _, label := range labels {
		id := TransportIconID(prefix, label)
		if atlas.HasImage(id) {
			continue
		}
		if err := register(atlas, id, LineShield(label, colors[label])); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func register(atlas Atlas, id string, img image.Image) error {
	if err := atlas.AddImage(id, img); err != nil {
		return fmt.Errorf("add %s: %w", id, err)
	}
	return nil
}
