package metrics

import "math"

// WelfordState holds running statistics using Welford's online algorithm,
// so segment lengths can be summarized in one pass without keeping them.
type WelfordState struct {
	Count int     // number of observations
	Mean  float64 // running mean
	M2    float64 // sum of squared differences from the mean
	Sum   float64 // running total
}

// Update adds an observation.
func (w *WelfordState) Update(value float64) {
	w.Count++
	w.Sum += value
	delta := value - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := value - w.Mean
	w.M2 += delta * delta2
}

// GetMean returns the current mean, 0 without observations.
func (w *WelfordState) GetMean() float64 {
	return w.Mean
}

// GetStdDev returns the population standard deviation.
// Returns 0 if fewer than 2 observations.
func (w *WelfordState) GetStdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}

// GetCount returns the number of observations.
func (w *WelfordState) GetCount() int {
	return w.Count
}

// GetSum returns the total of all observations.
func (w *WelfordState) GetSum() float64 {
	return w.Sum
}
