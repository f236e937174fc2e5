package domain

import (
	"math"
	"strconv"
)

// RainPoint is [lat, lon, precipitation_mm].
type RainPoint [3]float64

// TempPoint is [lat, lon, temperature_celsius].
type TempPoint [3]float64

// WindPoint is [lat, lon, speed, direction_deg].
type WindPoint [4]float64

// TransformPrecipitation drops dry rows and decimates the rest. rows must be
// the precipitation records of a single valid time, in table order.
func TransformPrecipitation(rows []Record, opts Options) []RainPoint {
	points := make([]RainPoint, 0, len(rows)/opts.RainStep+1)
	kept := 0
	for _, r := range rows {
		if r.Value <= opts.RainMinValue {
			continue
		}
		if kept%opts.RainStep == 0 {
			points = append(points, RainPoint{r.Lat, r.Lon, r.Value})
		}
		kept++
	}
	return points
}

// TransformTemperature converts Kelvin to Celsius and decimates. No row is
// filtered by value.
func TransformTemperature(rows []Record, opts Options) []TempPoint {
	points := make([]TempPoint, 0, len(rows)/opts.TempStep+1)
	for i := 0; i < len(rows); i += opts.TempStep {
		r := rows[i]
		points = append(points, TempPoint{r.Lat, r.Lon, r.Value - opts.KelvinOffset})
	}
	return points
}

// TransformWind combines the U and V records of one valid time into wind
// vectors, sampling every WindStep-th U row.
//
// The subsets must have equal length; otherwise no points are produced and
// aligned is false. Each sampled U row is paired with the V row at the same
// index when both sit on the same grid point, and with the V row for that
// grid point otherwise. U rows with no V counterpart are skipped. This differs
// from purely positional pairing on purpose: a U row is never combined with a
// V row from a different grid point, even if that drops the sample.
func TransformWind(u, v []Record, opts Options) (points []WindPoint, aligned bool) {
	points = make([]WindPoint, 0)
	if len(u) != len(v) {
		return points, false
	}

	var byGridPoint map[gridPoint]int
	for i := 0; i < len(u); i += opts.WindStep {
		ur, vr := u[i], v[i]
		if !sameGridPoint(ur, vr) {
			if byGridPoint == nil {
				byGridPoint = indexGridPoints(v)
			}
			j, ok := byGridPoint[gridPoint{lat: ur.Lat, lon: ur.Lon}]
			if !ok {
				continue
			}
			vr = v[j]
		}

		speed := math.Sqrt(ur.Value*ur.Value + vr.Value*vr.Value)
		if speed <= opts.WindMinSpeed {
			continue
		}
		direction := math.Atan2(vr.Value, ur.Value) * 180 / math.Pi
		points = append(points, WindPoint{
			ur.Lat,
			ur.Lon,
			roundTo(speed, opts.WindPrecision),
			roundTo(direction, opts.WindPrecision),
		})
	}
	return points, true
}

type gridPoint struct {
	lat, lon float64
}

func sameGridPoint(a, b Record) bool {
	return a.Lat == b.Lat && a.Lon == b.Lon
}

// indexGridPoints maps each grid point to its first row index.
func indexGridPoints(rows []Record) map[gridPoint]int {
	idx := make(map[gridPoint]int, len(rows))
	for i, r := range rows {
		k := gridPoint{lat: r.Lat, lon: r.Lon}
		if _, ok := idx[k]; !ok {
			idx[k] = i
		}
	}
	return idx
}

// roundTo rounds x to the given number of decimals through its decimal
// representation: the exact binary value is rounded to nearest, ties to even.
// 1.15 (stored as 1.1499...) becomes 1.1 and 1.25 becomes 1.2.
func roundTo(x float64, decimals int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return v
}
