package lines

import (
	"sort"

	"github.com/lavilleavelo/carte-velo-lyon/internal/geometry"
	"github.com/lavilleavelo/carte-velo-lyon/internal/metrics"
)

// LineSummary describes one line of an assembly result.
type LineSummary struct {
	Line              int     `json:"line"`
	Segments          int     `json:"segments"`
	SharedSegments    int     `json:"sharedSegments"`
	TotalMeters       float64 `json:"totalMeters"`
	MeanSegmentMeters float64 `json:"meanSegmentMeters"`
	StdDevMeters      float64 `json:"stdDevMeters"`
	// GreatCircleMeters is the haversine length, for comparison with the
	// planar TotalMeters.
	GreatCircleMeters float64 `json:"greatCircleMeters"`
}

// Summaries returns per-line length statistics, ordered by line number.
func (r Result) Summaries() []LineSummary {
	states := make(map[int]*metrics.WelfordState)
	shared := make(map[int]int)
	greatCircle := make(map[int]float64)

	for _, s := range r.Features {
		w, ok := states[s.Line]
		if !ok {
			w = &metrics.WelfordState{}
			states[s.Line] = w
		}
		w.Update(s.Distance)
		if ls, ok := s.LineString(); ok {
			greatCircle[s.Line] += geometry.HaversineLength(ls)
		}
		if s.CompositeIconName != "" {
			shared[s.Line]++
		}
	}

	summaries := make([]LineSummary, 0, len(states))
	for line, w := range states {
		summaries = append(summaries, LineSummary{
			Line:              line,
			Segments:          w.GetCount(),
			SharedSegments:    shared[line],
			TotalMeters:       w.GetSum(),
			MeanSegmentMeters: w.GetMean(),
			StdDevMeters:      w.GetStdDev(),
			GreatCircleMeters: greatCircle[line],
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Line < summaries[j].Line
	})
	return summaries
}
