package shield

import (
	"image"
	"image/color"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

const (
	// IconSize is the height of every shield and the width of a single one.
	IconSize = 64
	// OverlapFraction is how much neighbouring circles of a composite overlap.
	OverlapFraction = 0.3
	// Spacing is the distance between circle centres in a composite.
	Spacing = IconSize - IconSize*OverlapFraction

	radius       = IconSize/2 - 4
	outlineWidth = 3
	labelSize    = 28
	labelOffsetY = 3

	fallbackColor = "#000000"
	outlineColor  = "#ffffff"
)

var (
	fontOnce sync.Once
	boldFont *truetype.Font
)

func labelFace() font.Face {
	fontOnce.Do(func() {
		f, err := truetype.Parse(gobold.TTF)
		if err != nil {
			log.Printf("Warning: shield label font unavailable, drawing without labels: %v", err)
			return
		}
		boldFont = f
	})
	if boldFont == nil {
		return nil
	}
	return truetype.NewFace(boldFont, &truetype.Options{Size: labelSize})
}

// CompositeWidth returns the canvas width needed for n overlapping circles.
func CompositeWidth(n int) float64 {
	if n < 1 {
		return 0
	}
	return IconSize + Spacing*float64(n-1)
}

// LineShield renders a single-line badge: a filled circle with a white
// outline and the label centred inside.
func LineShield(label string, fill string) image.Image {
	dc := gg.NewContext(IconSize, IconSize)
	drawBadge(dc, labelFace(), IconSize/2, label, fill)
	return dc.Image()
}

// CompositeShield renders one circle per line laid out left to right, each
// overlapping the previous one. colors is matched to lines by position;
// missing or empty colors fall back to black. Returns nil without lines.
func CompositeShield(lines []int, colors []string) image.Image {
	if len(lines) == 0 {
		return nil
	}

	// Canvas widths are whole pixels; the fractional part is dropped.
	dc := gg.NewContext(int(CompositeWidth(len(lines))), IconSize)
	face := labelFace()
	for i, line := range lines {
		var fill string
		if i < len(colors) {
			fill = colors[i]
		}
		x := float64(i)*Spacing + IconSize/2
		drawBadge(dc, face, x, strconv.Itoa(line), fill)
	}
	return dc.Image()
}

func drawBadge(dc *gg.Context, face font.Face, x float64, label, fill string) {
	y := float64(IconSize / 2)

	dc.DrawCircle(x, y, radius)
	dc.SetColor(ParseColor(fill))
	dc.Fill()

	dc.DrawCircle(x, y, radius)
	dc.SetColor(ParseColor(outlineColor))
	dc.SetLineWidth(outlineWidth)
	dc.Stroke()

	if face == nil || label == "" {
		return
	}
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(label, x, y+labelOffsetY, 0.5, 0.5)
}

// ParseColor understands "#rgb", "#rrggbb" and "rgb(r, g, b)". Anything else,
// including the empty string, is black.
func ParseColor(s string) color.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		s = fallbackColor
	}

	if strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")") {
		parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "rgb("), ")"), ",")
		if len(parts) == 3 {
			var c [3]uint8
			for i, p := range parts {
				v, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil || v < 0 || v > 255 {
					return color.Black
				}
				c[i] = uint8(v)
			}
			return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
		}
		return color.Black
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
