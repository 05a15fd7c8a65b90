package lines

import (
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property keys read from source features and written on annotated ones.
const (
	PropSectionID         = "id"
	PropLine              = "line"
	PropDistance          = "distance"
	PropCompositeIconName = "compositeIconName"
)

// Segment is one line-tagged feature of a Voie Lyonnaise. Properties carries
// the upstream metadata untouched; the computed fields live beside it and are
// only merged back when the segment is rendered as GeoJSON.
type Segment struct {
	ID                interface{}
	Line              int
	SectionID         string
	NumericSection    bool
	Geometry          orb.Geometry
	Properties        geojson.Properties
	Distance          float64
	CompositeIconName string
}

// FromFeature builds a segment for the given line. Geometry and properties
// are deep copies; the source feature is never shared.
func FromFeature(f *geojson.Feature, line int) Segment {
	props := f.Properties.Clone()
	if props == nil {
		props = geojson.Properties{}
	}
	id, numeric := sectionID(props)
	return Segment{
		ID:             f.ID,
		Line:           line,
		SectionID:      id,
		NumericSection: numeric,
		Geometry:       cloneGeometry(f.Geometry),
		Properties:     props,
	}
}

// LineString returns the coordinates when the segment is line-shaped.
func (s Segment) LineString() (orb.LineString, bool) {
	ls, ok := s.Geometry.(orb.LineString)
	return ls, ok
}

// IsLine reports whether the segment geometry is a LineString.
func (s Segment) IsLine() bool {
	_, ok := s.LineString()
	return ok
}

// Clone returns a copy that shares no memory with s.
func (s Segment) Clone() Segment {
	c := s
	c.Geometry = cloneGeometry(s.Geometry)
	c.Properties = s.Properties.Clone()
	return c
}

// Feature renders the segment as a GeoJSON feature carrying the computed
// properties (line, distance and, when set, compositeIconName).
func (s Segment) Feature() *geojson.Feature {
	f := geojson.NewFeature(cloneGeometry(s.Geometry))
	f.ID = s.ID
	f.Properties = s.Properties.Clone()
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	if s.Line != 0 {
		f.Properties[PropLine] = s.Line
	}
	if s.IsLine() {
		f.Properties[PropDistance] = s.Distance
	}
	if s.CompositeIconName != "" {
		f.Properties[PropCompositeIconName] = s.CompositeIconName
	}
	return f
}

// Collection wraps segments into a FeatureCollection.
func Collection(segments []Segment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(segments))
	for _, s := range segments {
		fc.Append(s.Feature())
	}
	return fc
}

// sectionID extracts the shared-section identifier and whether it was a JSON
// number. Upstream files use strings but numeric ids show up too; zero and
// empty mean "no section".
func sectionID(props geojson.Properties) (string, bool) {
	switch v := props[PropSectionID].(type) {
	case string:
		return v, false
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		if v == 0 {
			return "", false
		}
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

func cloneGeometry(g orb.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return orb.Clone(g)
}
