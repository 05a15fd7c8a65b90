package shield

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

func rgba(c color.Color) color.RGBA {
	r, g, b, a := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func TestCompositeWidth(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{0, 0},
		{1, 64},
		{2, 108.8},
		{3, 153.6},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, CompositeWidth(tt.n), 1e-9, "n=%d", tt.n)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#60A75B", color.RGBA{0x60, 0xA7, 0x5B, 255}},
		{"#fff", color.RGBA{255, 255, 255, 255}},
		{"rgb(224, 194, 51)", color.RGBA{224, 194, 51, 255}},
		{"", color.RGBA{0, 0, 0, 255}},
		{"not-a-color", color.RGBA{0, 0, 0, 255}},
		{"rgb(300, 0, 0)", color.RGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, rgba(ParseColor(tt.in)))
		})
	}
}

func TestLineShield(t *testing.T) {
	img := LineShield("1", "#60A75B")
	require.NotNil(t, img)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	// inside the circle, clear of the label
	assert.Equal(t, color.RGBA{0x60, 0xA7, 0x5B, 255}, rgba(img.At(10, 32)))
	// corner outside the circle stays transparent
	assert.Equal(t, uint8(0), rgba(img.At(0, 0)).A)
}

func TestCompositeShield(t *testing.T) {
	t.Run("no lines", func(t *testing.T) {
		assert.Nil(t, CompositeShield(nil, nil))
	})

	t.Run("three lines", func(t *testing.T) {
		img := CompositeShield([]int{1, 4, 9}, []string{"#60A75B", "#DC8953", "#EAAB50"})
		require.NotNil(t, img)
		assert.Equal(t, 153, img.Bounds().Dx())
		assert.Equal(t, 64, img.Bounds().Dy())

		assert.Equal(t, color.RGBA{0x60, 0xA7, 0x5B, 255}, rgba(img.At(8, 32)))
		assert.Equal(t, color.RGBA{0xEA, 0xAB, 0x50, 255}, rgba(img.At(140, 32)))
	})

	t.Run("missing color is black", func(t *testing.T) {
		img := CompositeShield([]int{1, 13}, []string{"#60A75B"})
		require.NotNil(t, img)
		assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(img.At(98, 32)))
	})
}

func TestMemoryAtlas(t *testing.T) {
	atlas := NewMemoryAtlas()
	assert.False(t, atlas.HasImage("a"))

	require.NoError(t, atlas.AddImage("b", LineShield("2", "#AC4D35")))
	require.NoError(t, atlas.AddImage("a", LineShield("1", "#60A75B")))
	assert.ErrorIs(t, atlas.AddImage("a", LineShield("1", "#60A75B")), ErrImageExists)
	assert.Error(t, atlas.AddImage("c", nil))

	assert.True(t, atlas.HasImage("a"))
	assert.Equal(t, []string{"a", "b"}, atlas.IDs())
	assert.Equal(t, 2, atlas.Len())

	var buf bytes.Buffer
	require.NoError(t, atlas.WritePNG(&buf, "a"))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())

	assert.ErrorIs(t, atlas.WritePNG(&buf, "missing"), ErrImageNotFound)
}

func sectionSegment(line int, section string) lines.Segment {
	return lines.Segment{
		Line:      line,
		SectionID: section,
		Geometry:  orb.LineString{{4.83, 45.76}, {4.84, 45.76}},
	}
}

func TestLoadShieldIcons(t *testing.T) {
	atlas := NewMemoryAtlas()
	features := []lines.Segment{
		sectionSegment(1, "A"),
		sectionSegment(2, "A"),
		sectionSegment(1, "B"),
		sectionSegment(4, "B"),
		sectionSegment(9, "B"),
		sectionSegment(3, "C"),
	}

	added, err := LoadShieldIcons(atlas, features, lines.DefaultPalette, 12)
	require.NoError(t, err)
	assert.Equal(t, 14, added)
	assert.True(t, atlas.HasImage("line-shield-12"))
	assert.True(t, atlas.HasImage("line-shield-1-2"))
	assert.True(t, atlas.HasImage("line-shield-1-4-9"))
	assert.False(t, atlas.HasImage("line-shield-1-3"))

	img, ok := atlas.Image("line-shield-1-4-9")
	require.True(t, ok)
	assert.Equal(t, 153, img.Bounds().Dx())

	again, err := LoadShieldIcons(atlas, features, lines.DefaultPalette, 12)
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestLoadShieldIconsKeepsExisting(t *testing.T) {
	atlas := NewMemoryAtlas()
	existing := LineShield("x", "#000000")
	require.NoError(t, atlas.AddImage(LineIconID(1), existing))

	added, err := LoadShieldIcons(atlas, nil, lines.DefaultPalette, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	img, _ := atlas.Image(LineIconID(1))
	assert.Same(t, existing, img)
}

func TestLoadTransportShieldIcons(t *testing.T) {
	feature := func(props geojson.Properties) *geojson.Feature {
		f := geojson.NewFeature(orb.LineString{{4.8, 45.7}, {4.9, 45.8}})
		f.Properties = props
		return f
	}
	features := []*geojson.Feature{
		feature(geojson.Properties{"ligne": "C3", "color": "#a3a3a3"}),
		feature(geojson.Properties{"ligne": "C3", "color": "#a3a3a3"}),
		feature(geojson.Properties{"ligne": "TB11", "color": "#E0C233"}),
		feature(geojson.Properties{"ligne": "T1"}),
		nil,
	}

	atlas := NewMemoryAtlas()
	added, err := LoadTransportShieldIcons(atlas, features, "bus")
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"bus-shield-C3", "bus-shield-TB11"}, atlas.IDs())
}
