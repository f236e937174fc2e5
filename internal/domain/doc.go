// Package domain turns tabular Meso-Scale Model (MSM) forecast rows into the
// time-indexed payload consumed by the weather map.
//
// # Data Source
//
// The Japan Meteorological Agency (JMA) publishes MSM Grid Point Value (GPV)
// surface forecasts as GRIB2 files. The Kyoto University RISH archive mirrors
// them under a deterministic path built from the forecast cycle, see
// [SourceFileName]. The grid file is converted to CSV by wgrib2:
//
//	wgrib2 latest_msm.bin -csv latest_output.csv
//
// # Tabular Conventions
//
// The converter emits one headerless row per grid point, variable and valid
// time, always with seven columns in a fixed order:
//
//	time_issued, time_valid, variable, level, lon, lat, value
//	"2024-01-01 00:00:00","2024-01-01 03:00:00","TMP","2 m above ground",139.0,35.0,281.4
//
// Timestamps are fixed-width strings, so lexicographic order equals
// chronological order and they are never parsed.
//
// Variables and units:
//
//	APCP  accumulated precipitation, kg/m² (= mm)
//	TMP   temperature, Kelvin
//	UGRD  zonal (west→east) wind component, m/s
//	VGRD  meridional (south→north) wind component, m/s
//
// Other variables in the file (PRMSL, RH, TCDC, ...) are not classified and do
// not reach the payload.
//
// # Classification
//
// Each row belongs to at most one [Class]. Patterns are matched as
// case-insensitive substrings and checked in a fixed precedence order:
// precipitation, temperature, wind U, wind V. The first match wins.
//
// # Timeline
//
// Only valid times present in the precipitation rows become payload keys.
// Temperature and wind rows for other times are dropped; a timeline entry
// without temperature or wind rows gets an empty list for that dataset.
//
// # Wind
//
// Speed is sqrt(u² + v²). Direction is the mathematical angle atan2(v, u) in
// degrees, measured counter-clockwise from east in the range (-180, 180]. It
// is the direction the wind blows towards, not the meteorological "from"
// bearing. Both are rounded to [Options.WindPrecision] decimal places through
// their decimal representation, to nearest with ties to even.
package domain
