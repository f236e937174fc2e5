package domain

import "fmt"

// Options holds the tunable constants of the transform stage.
type Options struct {
	// RainMinValue drops precipitation rows with value <= RainMinValue.
	RainMinValue float64
	// RainStep keeps every RainStep-th precipitation row after filtering.
	RainStep int

	// KelvinOffset is subtracted from temperatures to get Celsius.
	KelvinOffset float64
	// TempStep keeps every TempStep-th temperature row.
	TempStep int

	// WindStep is the row stride over the U/V subsets.
	WindStep int
	// WindMinSpeed omits wind points with speed <= WindMinSpeed (m/s).
	WindMinSpeed float64
	// WindPrecision is the number of decimals kept for speed and direction.
	WindPrecision int
}

// DefaultOptions returns the settings the map client is tuned for.
func DefaultOptions() Options {
	return Options{
		RainMinValue:  0,
		RainStep:      5,
		KelvinOffset:  273.15,
		TempStep:      10,
		WindStep:      15,
		WindMinSpeed:  1.0,
		WindPrecision: 1,
	}
}

// Validate rejects options the transforms cannot run with.
func (o Options) Validate() error {
	if o.RainStep < 1 {
		return fmt.Errorf("rain step must be >= 1, got %d", o.RainStep)
	}
	if o.TempStep < 1 {
		return fmt.Errorf("temperature step must be >= 1, got %d", o.TempStep)
	}
	if o.WindStep < 1 {
		return fmt.Errorf("wind step must be >= 1, got %d", o.WindStep)
	}
	if o.WindPrecision < 0 || o.WindPrecision > 6 {
		return fmt.Errorf("wind precision must be between 0 and 6, got %d", o.WindPrecision)
	}
	return nil
}
