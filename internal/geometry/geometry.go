package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthRadiusMeters = 6371000

	// MetersPerDegreeLon is the length of one degree of longitude at the equator.
	MetersPerDegreeLon = 111320.0
	// MetersPerDegreeLat is the length of one degree of latitude.
	MetersPerDegreeLat = 110540.0

	// directionEpsilon is the longitude delta (degrees) under which a line is
	// treated as running north-south.
	directionEpsilon = 0.0000001
)

// Distance returns the planar-approximated length of a line in meters.
// Longitude deltas are scaled by the cosine of the latitude at the start of
// each pair. Valid for city-scale segments only.
func Distance(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		lon1, lat1 := ls[i-1][0], ls[i-1][1]
		lon2, lat2 := ls[i][0], ls[i][1]

		dx := (lon2 - lon1) * MetersPerDegreeLon * math.Cos(lat1*math.Pi/180)
		dy := (lat2 - lat1) * MetersPerDegreeLat
		total += math.Sqrt(dx*dx + dy*dy)
	}
	return total
}

// NormalizeDirection orients a line eastward, or southward when it is
// near-vertical. Lines with fewer than two points are returned unchanged.
// The input is never modified; a reversed copy is returned when needed.
func NormalizeDirection(ls orb.LineString) orb.LineString {
	if len(ls) < 2 {
		return ls
	}

	start := ls[0]
	end := ls[len(ls)-1]

	lonDiff := end[0] - start[0]
	latDiff := end[1] - start[1]

	var shouldReverse bool
	if math.Abs(lonDiff) > directionEpsilon {
		shouldReverse = lonDiff < 0 // going west
	} else {
		shouldReverse = latDiff > 0 // going north
	}

	if shouldReverse {
		return Reverse(ls)
	}
	return ls
}

// Reverse returns a reversed copy of ls.
func Reverse(ls orb.LineString) orb.LineString {
	reversed := make(orb.LineString, len(ls))
	for i := range ls {
		reversed[i] = ls[len(ls)-1-i]
	}
	return reversed
}

// Haversine calculates the great-circle distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// HaversineLength sums great-circle distances along a line.
func HaversineLength(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += Haversine(ls[i-1][1], ls[i-1][0], ls[i][1], ls[i][0])
	}
	return total
}
