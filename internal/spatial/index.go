package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/lavilleavelo/carte-velo-lyon/internal/lines"
)

// Zero-width extents (points, axis-aligned segments) are padded to this
// size in degrees, about 11 m, since the R-tree rejects empty rectangles.
const epsilon = 0.0001

// Index answers bounding-box queries over a slice of segments. Results are
// positions in the slice it was built from.
type Index struct {
	rtree *rtreego.Rtree
	size  int
}

type indexedSegment struct {
	index  int
	bounds orb.Bound
}

// Bounds implements rtreego.Spatial.
func (s *indexedSegment) Bounds() rtreego.Rect {
	return rect(s.bounds)
}

func rect(b orb.Bound) rtreego.Rect {
	lonLength := b.Max.Lon() - b.Min.Lon()
	latLength := b.Max.Lat() - b.Min.Lat()
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	r, _ := rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, []float64{lonLength, latLength})
	return r
}

// NewIndex builds an index over the segments that carry a geometry.
func NewIndex(segments []lines.Segment) *Index {
	objs := make([]rtreego.Spatial, 0, len(segments))
	for i, seg := range segments {
		if seg.Geometry == nil {
			continue
		}
		objs = append(objs, &indexedSegment{index: i, bounds: seg.Geometry.Bound()})
	}

	return &Index{
		rtree: rtreego.NewTree(2, 25, 50, objs...),
		size:  len(objs),
	}
}

// Len returns the number of indexed segments.
func (idx *Index) Len() int {
	return idx.size
}

// Search returns the positions of the segments whose bounding box
// intersects b, in ascending order.
func (idx *Index) Search(b orb.Bound) []int {
	spatials := idx.rtree.SearchIntersect(rect(b))

	result := make([]int, 0, len(spatials))
	for _, s := range spatials {
		result = append(result, s.(*indexedSegment).index)
	}
	sort.Ints(result)
	return result
}
