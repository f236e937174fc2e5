package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"gopkg.in/yaml.v3"
)

// transformFile is the YAML layout of TRANSFORM_CONFIG. Unset keys keep
// their defaults.
//
//	rain:
//	  min_value: 0
//	  step: 5
//	temperature:
//	  kelvin_offset: 273.15
//	  step: 10
//	wind:
//	  step: 15
//	  min_speed: 1.0
//	  precision: 1
type transformFile struct {
	Rain struct {
		MinValue *float64 `yaml:"min_value"`
		Step     *int     `yaml:"step"`
	} `yaml:"rain"`
	Temperature struct {
		KelvinOffset *float64 `yaml:"kelvin_offset"`
		Step         *int     `yaml:"step"`
	} `yaml:"temperature"`
	Wind struct {
		Step      *int     `yaml:"step"`
		MinSpeed  *float64 `yaml:"min_speed"`
		Precision *int     `yaml:"precision"`
	} `yaml:"wind"`
}

// LoadTransformOptions reads a transform YAML file on top of the defaults.
func LoadTransformOptions(path string) (domain.Options, error) {
	opts := domain.DefaultOptions()
	if err := applyTransformFile(path, &opts); err != nil {
		return domain.Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return domain.Options{}, fmt.Errorf("invalid transform options in %s: %w", path, err)
	}
	return opts, nil
}

func applyTransformFile(path string, opts *domain.Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read transform config %s: %w", path, err)
	}

	var f transformFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse transform config %s: %w", path, err)
	}

	setIf(&opts.RainMinValue, f.Rain.MinValue)
	setIf(&opts.RainStep, f.Rain.Step)
	setIf(&opts.KelvinOffset, f.Temperature.KelvinOffset)
	setIf(&opts.TempStep, f.Temperature.Step)
	setIf(&opts.WindStep, f.Wind.Step)
	setIf(&opts.WindMinSpeed, f.Wind.MinSpeed)
	setIf(&opts.WindPrecision, f.Wind.Precision)
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
