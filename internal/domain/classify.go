package domain

import "strings"

// Class is the physical variable a record carries.
type Class int

const (
	ClassNone Class = iota
	ClassPrecipitation
	ClassTemperature
	ClassWindU
	ClassWindV
)

// Classes lists every real class in precedence order.
var Classes = []Class{ClassPrecipitation, ClassTemperature, ClassWindU, ClassWindV}

func (c Class) String() string {
	switch c {
	case ClassPrecipitation:
		return "precipitation"
	case ClassTemperature:
		return "temperature"
	case ClassWindU:
		return "wind_u"
	case ClassWindV:
		return "wind_v"
	default:
		return "none"
	}
}

// classPatterns is checked top to bottom; the first class with a matching
// pattern wins. Patterns are lower case and matched against the lower-cased
// variable name.
var classPatterns = []struct {
	class    Class
	patterns []string
}{
	{ClassPrecipitation, []string{"apcp", "precipitation"}},
	{ClassTemperature, []string{"tmp", "temperature"}},
	{ClassWindU, []string{"ugrd"}},
	{ClassWindV, []string{"vgrd"}},
}

// Classify maps a variable name to its class, or ClassNone when no pattern
// matches. A name matching several patterns gets the earliest class in
// precedence order.
func Classify(variable string) Class {
	name := strings.ToLower(variable)
	for _, cp := range classPatterns {
		for _, p := range cp.patterns {
			if strings.Contains(name, p) {
				return cp.class
			}
		}
	}
	return ClassNone
}

// Subsets holds the classified records, each in table order.
type Subsets struct {
	Precipitation []Record
	Temperature   []Record
	WindU         []Record
	WindV         []Record

	// Unclassified counts records that matched no class.
	Unclassified int
}

// Of returns the subset for class c.
func (s Subsets) Of(c Class) []Record {
	switch c {
	case ClassPrecipitation:
		return s.Precipitation
	case ClassTemperature:
		return s.Temperature
	case ClassWindU:
		return s.WindU
	case ClassWindV:
		return s.WindV
	default:
		return nil
	}
}

// ClassifyRecords partitions records into the four subsets. Each subset keeps
// the relative order of the input.
func ClassifyRecords(records []Record) Subsets {
	var s Subsets
	for _, r := range records {
		switch Classify(r.Variable) {
		case ClassPrecipitation:
			s.Precipitation = append(s.Precipitation, r)
		case ClassTemperature:
			s.Temperature = append(s.Temperature, r)
		case ClassWindU:
			s.WindU = append(s.WindU, r)
		case ClassWindV:
			s.WindV = append(s.WindV, r)
		default:
			s.Unclassified++
		}
	}
	return s
}
