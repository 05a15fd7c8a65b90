package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestDistanceDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, Distance(nil))
	assert.Equal(t, 0.0, Distance(orb.LineString{}))
	assert.Equal(t, 0.0, Distance(orb.LineString{{4.83, 45.75}}))
}

func TestDistanceSinglePair(t *testing.T) {
	// Due north by 0.01 degree: only the latitude constant applies.
	ls := orb.LineString{{4.83, 45.75}, {4.83, 45.76}}
	assert.InDelta(t, 1105.4, Distance(ls), 1e-6)
}

func TestDistanceAdditive(t *testing.T) {
	a := orb.LineString{{4.83, 45.75}, {4.835, 45.752}, {4.84, 45.755}}
	b := orb.LineString{{4.84, 45.755}, {4.845, 45.76}, {4.85, 45.761}}

	joined := append(append(orb.LineString{}, a...), b[1:]...)

	assert.InDelta(t, Distance(a)+Distance(b), Distance(joined), 1e-9)
	assert.Greater(t, Distance(joined), 0.0)
}

func TestDistanceCloseToHaversineAtCityScale(t *testing.T) {
	ls := orb.LineString{{4.83, 45.75}, {4.84, 45.76}, {4.86, 45.765}}

	planar := Distance(ls)
	great := HaversineLength(ls)

	// Within one percent over a few kilometers of Lyon.
	assert.InDelta(t, great, planar, great*0.01)
}

func TestNormalizeDirection(t *testing.T) {
	tests := []struct {
		name     string
		input    orb.LineString
		expected orb.LineString
	}{
		{
			name:     "empty",
			input:    orb.LineString{},
			expected: orb.LineString{},
		},
		{
			name:     "single point",
			input:    orb.LineString{{4.83, 45.75}},
			expected: orb.LineString{{4.83, 45.75}},
		},
		{
			name:     "eastward kept",
			input:    orb.LineString{{4.83, 45.75}, {4.84, 45.76}},
			expected: orb.LineString{{4.83, 45.75}, {4.84, 45.76}},
		},
		{
			name:     "westward reversed",
			input:    orb.LineString{{4.84, 45.76}, {4.83, 45.75}},
			expected: orb.LineString{{4.83, 45.75}, {4.84, 45.76}},
		},
		{
			name:     "southward kept",
			input:    orb.LineString{{4.83, 45.76}, {4.83, 45.75}},
			expected: orb.LineString{{4.83, 45.76}, {4.83, 45.75}},
		},
		{
			name:     "northward reversed",
			input:    orb.LineString{{4.83, 45.75}, {4.83, 45.76}},
			expected: orb.LineString{{4.83, 45.76}, {4.83, 45.75}},
		},
		{
			name:     "near vertical within epsilon treated as north-south",
			input:    orb.LineString{{4.83, 45.75}, {4.83 + 0.00000005, 45.76}},
			expected: orb.LineString{{4.83 + 0.00000005, 45.76}, {4.83, 45.75}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeDirection(tc.input))
		})
	}
}

func TestNormalizeDirectionIdempotent(t *testing.T) {
	lines := []orb.LineString{
		{{4.84, 45.76}, {4.835, 45.7}, {4.83, 45.75}},
		{{4.83, 45.75}, {4.83, 45.76}},
		{{4.80, 45.70}, {4.90, 45.71}, {4.85, 45.72}},
	}

	for _, ls := range lines {
		once := NormalizeDirection(ls)
		twice := NormalizeDirection(once)
		assert.Equal(t, once, twice)

		assert.Equal(t, once, NormalizeDirection(Reverse(ls)), "a line and its reverse share one orientation")
	}
}

func TestNormalizeDirectionDoesNotMutateInput(t *testing.T) {
	ls := orb.LineString{{4.84, 45.76}, {4.83, 45.75}}
	_ = NormalizeDirection(ls)

	assert.Equal(t, orb.Point{4.84, 45.76}, ls[0])
	assert.Equal(t, orb.Point{4.83, 45.75}, ls[1])
}
