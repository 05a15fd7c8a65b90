package lines

// Palette maps a 1-based line number to its color.
type Palette []string

// DefaultPalette holds the official Voies Lyonnaises colors, lines 1 to 12.
var DefaultPalette = Palette{
	"#60A75B",
	"#AC4D35",
	"#3B7B64",
	"#DC8953",
	"#AF7392",
	"#396083",
	"#75BCAE",
	"#7E6D98",
	"#EAAB50",
	"#9A8A4B",
	"#4DADC9",
	"#DBABB7",
}

// Color returns the color of a line. Lines outside the palette have none.
func (p Palette) Color(line int) (string, bool) {
	if line < 1 || line > len(p) {
		return "", false
	}
	return p[line-1], true
}

// Colors returns one entry per line, empty where the palette has no color.
func (p Palette) Colors(lines []int) []string {
	colors := make([]string, len(lines))
	for i, line := range lines {
		colors[i], _ = p.Color(line)
	}
	return colors
}
