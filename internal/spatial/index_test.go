package spatial

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

func bound(minLon, minLat, maxLon, maxLat float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

func TestIndexSearch(t *testing.T) {
	segments := []lines.Segment{
		{Line: 1, Geometry: orb.LineString{{4.80, 45.70}, {4.82, 45.72}}},
		{Line: 2, Geometry: orb.LineString{{4.90, 45.80}, {4.92, 45.80}}},
		{Line: 3},
		{Line: 4, Geometry: orb.LineString{{4.81, 45.71}, {4.95, 45.81}}},
		{Line: 5, Geometry: orb.Point{5.10, 46.00}},
	}
	idx := NewIndex(segments)
	assert.Equal(t, 4, idx.Len())

	tests := []struct {
		name  string
		query orb.Bound
		want  []int
	}{
		{"west corner", bound(4.79, 45.69, 4.805, 45.705), []int{0}},
		{"overlap", bound(4.81, 45.70, 4.83, 45.73), []int{0, 3}},
		{"horizontal segment", bound(4.91, 45.799, 4.915, 45.805), []int{1, 3}},
		{"point", bound(5.09, 45.99, 5.11, 46.01), []int{4}},
		{"everything", bound(4.0, 45.0, 6.0, 47.0), []int{0, 1, 3, 4}},
		{"nothing", bound(2.0, 48.0, 2.5, 48.5), []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Search(tt.query))
		})
	}
}

func TestIndexEmpty(t *testing.T) {
	idx := NewIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search(bound(4.0, 45.0, 6.0, 47.0)))
}
