package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/menta2k/smartcrop/pkg/facedetect"
	"github.com/menta2k/smartcrop/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Crop   types.Options `json:"crop" yaml:"crop"`
	Output OutputConfig  `json:"output" yaml:"output"`
	Boost  BoostConfig   `json:"boost" yaml:"boost"`
	Log    LogConfig     `json:"log" yaml:"log"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Format   string `json:"format" yaml:"format"` // jpg, png, webp; empty keeps the input format
	Quality  int    `json:"quality" yaml:"quality"`
	Lossless bool   `json:"lossless" yaml:"lossless"`
	Dir      string `json:"dir" yaml:"dir"`
	Prefix   string `json:"prefix" yaml:"prefix"`
	Suffix   string `json:"suffix" yaml:"suffix"`
}

// BoostConfig selects the boost sources
type BoostConfig struct {
	// FaceCascade is the path of a pigo cascade, empty disables face boosts
	FaceCascade string            `json:"face_cascade" yaml:"face_cascade"`
	Face        facedetect.Config `json:"face" yaml:"face"`
	Vision      VisionConfig      `json:"vision" yaml:"vision"`
}

// VisionConfig holds configuration for vision-model subject detection
type VisionConfig struct {
	Backend string  `json:"backend" yaml:"backend"` // "", ollama or llamacpp
	URL     string  `json:"url" yaml:"url"`
	Model   string  `json:"model" yaml:"model"`
	MaxDim  int     `json:"max_dim" yaml:"max_dim"`
	Quality int     `json:"quality" yaml:"quality"`
	Weight  float64 `json:"weight" yaml:"weight"`
	// Prompt replaces the built in subject detection prompt when set
	Prompt string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Verbose    bool   `json:"verbose" yaml:"verbose"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `json:"compress" yaml:"compress"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: types.DefaultOptions(),
		Output: OutputConfig{
			Format:  "jpg",
			Quality: 90,
			Dir:     "./output",
			Prefix:  "",
			Suffix:  "_cropped",
		},
		Boost: BoostConfig{
			Face: facedetect.DefaultConfig(),
			Vision: VisionConfig{
				Model:   "openbmb/minicpm-v4.5",
				MaxDim:  1536,
				Quality: 85,
				Weight:  1.0,
			},
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 2,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a file, as YAML when the extension says so
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(filename) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Crop.Validate(); err != nil {
		return fmt.Errorf("crop: %w", err)
	}

	switch strings.ToLower(c.Output.Format) {
	case "", "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp, got %q", c.Output.Format)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Boost.Vision.Backend {
	case "", "ollama", "llamacpp":
	default:
		return fmt.Errorf("boost.vision.backend must be ollama or llamacpp, got %q", c.Boost.Vision.Backend)
	}

	if c.Boost.Vision.Backend != "" && c.Boost.Vision.Model == "" {
		return fmt.Errorf("boost.vision.model is required when a vision backend is set")
	}

	if c.Boost.Vision.Weight < 0 || c.Boost.Face.Weight < 0 {
		return fmt.Errorf("boost weights must not be negative")
	}

	if c.Boost.FaceCascade != "" && (c.Boost.Face.ScaleFactor <= 1 || c.Boost.Face.ShiftFactor <= 0) {
		return fmt.Errorf("boost.face needs scale_factor > 1 and shift_factor > 0")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "smartcrop", "config.json")
}

func isYAML(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
