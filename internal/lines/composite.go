package lines

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lavilleavelo/carte-velo-lyon/internal/geometry"
)

// CompositeDelimiter joins line numbers in a composite key.
const CompositeDelimiter = "-"

// CompositeKey returns the sorted, deduplicated line set joined by
// CompositeDelimiter. ok is false when fewer than two distinct lines remain,
// since a single line never gets a composite icon.
func CompositeKey(lines []int) (key string, ok bool) {
	unique := distinctSorted(lines)
	if len(unique) < 2 {
		return "", false
	}

	parts := make([]string, len(unique))
	for i, l := range unique {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, CompositeDelimiter), true
}

// ParseCompositeKey splits a composite key back into its line numbers.
func ParseCompositeKey(key string) ([]int, error) {
	parts := strings.Split(key, CompositeDelimiter)
	lines := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid composite key %q: %w", key, err)
		}
		lines = append(lines, n)
	}
	return lines, nil
}

// AddCompositeIconNames normalizes the direction of every line-shaped segment
// and names the segments of sections shared by two or more lines. The result
// is a new slice of new segments; the input is left as is.
func AddCompositeIconNames(segments []Segment) []Segment {
	groups := GroupSections(segments)

	processed := make([]Segment, len(segments))
	for i, s := range segments {
		c := s.Clone()
		if ls, ok := c.LineString(); ok {
			c.Geometry = geometry.NormalizeDirection(ls)
		}
		processed[i] = c
	}

	for _, id := range groups.IDs() {
		key, ok := CompositeKey(groups.Lines(id))
		if !ok {
			continue
		}
		for _, m := range groups.Members(id) {
			processed[m.Index].CompositeIconName = key
		}
	}

	return processed
}

// UsedCompositeIcons returns the composite keys present in the data, sorted.
// Only combinations that actually occur are returned.
func UsedCompositeIcons(segments []Segment) []string {
	groups := GroupSections(segments)

	seen := make(map[string]bool)
	for _, id := range groups.IDs() {
		if key, ok := CompositeKey(groups.Lines(id)); ok {
			seen[key] = true
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func distinctSorted(lines []int) []int {
	seen := make(map[int]bool, len(lines))
	unique := make([]int, 0, len(lines))
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		unique = append(unique, l)
	}
	sort.Ints(unique)
	return unique
}
