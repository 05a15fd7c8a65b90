package lines

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/lavilleavelo/carte-velo-lyon/internal/geometry"
)

var (
	// ErrNotObject is returned when line sources are not a JSON object.
	ErrNotObject = errors.New("line sources must be a JSON object keyed by line number")
	// ErrBadLineKey is returned for a key that is not a positive line number.
	ErrBadLineKey = errors.New("invalid line number key")
)

// Result is the output of one assembly pass.
type Result struct {
	// Grouped holds one collection per line present in the input.
	Grouped map[int]*geojson.FeatureCollection
	// Features is the flat, annotated list across all lines.
	Features []Segment
}

// Assemble annotates every line-shaped feature with its distance and line
// number, runs one grouping pass over all lines together, then partitions
// the result back by line. Nil collections (failed fetches) are skipped.
func Assemble(sources map[int]*geojson.FeatureCollection) Result {
	lineNumbers := make([]int, 0, len(sources))
	for line := range sources {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)

	var pooled []Segment
	for _, line := range lineNumbers {
		fc := sources[line]
		if fc == nil {
			continue
		}
		for _, f := range fc.Features {
			if f == nil {
				continue
			}
			ls, ok := f.Geometry.(orb.LineString)
			if !ok {
				continue
			}
			s := FromFeature(f, line)
			s.Distance = geometry.Distance(ls)
			s.Properties[PropLine] = line
			pooled = append(pooled, s)
		}
	}

	processed := AddCompositeIconNames(pooled)

	grouped := make(map[int]*geojson.FeatureCollection)
	for _, s := range processed {
		fc, ok := grouped[s.Line]
		if !ok {
			fc = geojson.NewFeatureCollection()
			grouped[s.Line] = fc
		}
		fc.Append(s.Feature())
	}

	return Result{Grouped: grouped, Features: processed}
}

// AssembleCollections decodes a JSON object of per-line collections and
// assembles it.
func AssembleCollections(data []byte) (Result, error) {
	sources, err := DecodeSources(data)
	if err != nil {
		return Result{}, err
	}
	return Assemble(sources), nil
}

// Lines returns the line numbers present in the result, ascending.
func (r Result) Lines() []int {
	lines := make([]int, 0, len(r.Grouped))
	for line := range r.Grouped {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	return lines
}

// CompositeIcons returns the composite keys used by the flat feature list.
func (r Result) CompositeIcons() []string {
	return UsedCompositeIcons(r.Features)
}

// FlatCollection renders the flat feature list as one collection.
func (r Result) FlatCollection() *geojson.FeatureCollection {
	return Collection(r.Features)
}

// DecodeSources parses a JSON object mapping line numbers to feature
// collections. null entries, and collections that fail to decode, become
// absent lines. Malformed features are dropped one by one. A top-level value that is not an object, or a key that is
// not a positive integer, is an error.
func DecodeSources(data []byte) (map[int]*geojson.FeatureCollection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode line sources: %w", err)
	}

	sources := make(map[int]*geojson.FeatureCollection, len(raw))
	for key, value := range raw {
		line, err := strconv.Atoi(key)
		if err != nil || line < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadLineKey, key)
		}

		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			sources[line] = nil
			continue
		}

		fc, err := DecodeCollection(value)
		if err != nil {
			log.Printf("Warning: line %d has a malformed feature collection, skipping: %v", line, err)
			sources[line] = nil
			continue
		}
		sources[line] = fc
	}

	return sources, nil
}
