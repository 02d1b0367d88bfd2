package types

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions is returned when options cannot produce a valid analysis
var ErrInvalidOptions = errors.New("invalid crop options")

// Options holds every tunable weight and threshold of the crop analysis.
// An Options value is copied into each analysis and never mutated afterwards.
type Options struct {
	// Desired output size or aspect ratio. Only the crop pipeline reads these;
	// the analyzer works on CropWidth/CropHeight.
	Width  int     `json:"width" yaml:"width"`
	Height int     `json:"height" yaml:"height"`
	Aspect float64 `json:"aspect" yaml:"aspect"`

	// Base crop size in analysis pixels, 0 means the smaller image dimension
	CropWidth  int `json:"crop_width" yaml:"crop_width"`
	CropHeight int `json:"crop_height" yaml:"crop_height"`

	DetailWeight float64 `json:"detail_weight" yaml:"detail_weight"`

	SkinColor         [3]float64 `json:"skin_color" yaml:"skin_color"`
	SkinBias          float64    `json:"skin_bias" yaml:"skin_bias"`
	SkinBrightnessMin float64    `json:"skin_brightness_min" yaml:"skin_brightness_min"`
	SkinBrightnessMax float64    `json:"skin_brightness_max" yaml:"skin_brightness_max"`
	SkinThreshold     float64    `json:"skin_threshold" yaml:"skin_threshold"`
	SkinWeight        float64    `json:"skin_weight" yaml:"skin_weight"`

	SaturationBrightnessMin float64 `json:"saturation_brightness_min" yaml:"saturation_brightness_min"`
	SaturationBrightnessMax float64 `json:"saturation_brightness_max" yaml:"saturation_brightness_max"`
	SaturationThreshold     float64 `json:"saturation_threshold" yaml:"saturation_threshold"`
	SaturationBias          float64 `json:"saturation_bias" yaml:"saturation_bias"`
	SaturationWeight        float64 `json:"saturation_weight" yaml:"saturation_weight"`

	// Step * MinScale rounded down to the next power of two should be good
	ScoreDownSample int     `json:"score_down_sample" yaml:"score_down_sample"`
	Step            int     `json:"step" yaml:"step"`
	ScaleStep       float64 `json:"scale_step" yaml:"scale_step"`
	MinScale        float64 `json:"min_scale" yaml:"min_scale"`
	MaxScale        float64 `json:"max_scale" yaml:"max_scale"`

	EdgeRadius        float64 `json:"edge_radius" yaml:"edge_radius"`
	EdgeWeight        float64 `json:"edge_weight" yaml:"edge_weight"`
	OutsideImportance float64 `json:"outside_importance" yaml:"outside_importance"`
	BoostWeight       float64 `json:"boost_weight" yaml:"boost_weight"`
	RuleOfThirds      bool    `json:"rule_of_thirds" yaml:"rule_of_thirds"`

	Prescale     bool `json:"prescale" yaml:"prescale"`
	PrescaleSize int  `json:"prescale_size" yaml:"prescale_size"`

	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultOptions returns the stock tuning
func DefaultOptions() Options {
	return Options{
		DetailWeight:            0.2,
		SkinColor:               [3]float64{0.78, 0.57, 0.44},
		SkinBias:                0.01,
		SkinBrightnessMin:       0.2,
		SkinBrightnessMax:       1.0,
		SkinThreshold:           0.8,
		SkinWeight:              1.8,
		SaturationBrightnessMin: 0.05,
		SaturationBrightnessMax: 0.9,
		SaturationThreshold:     0.4,
		SaturationBias:          0.2,
		SaturationWeight:        0.1,
		ScoreDownSample:         8,
		Step:                    8,
		ScaleStep:               0.1,
		MinScale:                1.0,
		MaxScale:                1.0,
		EdgeRadius:              0.4,
		EdgeWeight:              -20.0,
		OutsideImportance:       -0.5,
		BoostWeight:             100.0,
		RuleOfThirds:            true,
		Prescale:                true,
		PrescaleSize:            256,
	}
}

// Validate checks the options before any pixel is scanned
func (o Options) Validate() error {
	if o.CropWidth < 0 || o.CropHeight < 0 {
		return fmt.Errorf("%w: crop size %dx%d must not be negative", ErrInvalidOptions, o.CropWidth, o.CropHeight)
	}
	if o.Width < 0 || o.Height < 0 || o.Aspect < 0 {
		return fmt.Errorf("%w: target size and aspect must not be negative", ErrInvalidOptions)
	}
	if o.MinScale <= 0 || o.MaxScale <= 0 {
		return fmt.Errorf("%w: scales must be positive (min %g, max %g)", ErrInvalidOptions, o.MinScale, o.MaxScale)
	}
	if o.MinScale > o.MaxScale {
		return fmt.Errorf("%w: min_scale %g is greater than max_scale %g", ErrInvalidOptions, o.MinScale, o.MaxScale)
	}
	if o.MinScale < o.MaxScale && o.ScaleStep <= 0 {
		return fmt.Errorf("%w: scale_step must be positive when scaling from %g to %g", ErrInvalidOptions, o.MaxScale, o.MinScale)
	}
	if o.Step < 1 {
		return fmt.Errorf("%w: step must be at least 1", ErrInvalidOptions)
	}
	if o.ScoreDownSample < 1 {
		return fmt.Errorf("%w: score_down_sample must be at least 1", ErrInvalidOptions)
	}
	if o.SkinThreshold >= 1 || o.SaturationThreshold >= 1 {
		return fmt.Errorf("%w: thresholds must be below 1", ErrInvalidOptions)
	}
	if o.Prescale && o.PrescaleSize < 1 {
		return fmt.Errorf("%w: prescale_size must be positive", ErrInvalidOptions)
	}
	return nil
}
