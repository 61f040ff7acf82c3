// Package config loads and validates the server configuration.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config is the full server configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" default:":8080"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Pretty bool   `yaml:"pretty" default:"false"`
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Analyzer struct {
		MinProbability float64 `yaml:"min_probability" default:"50" validate:"gte=0,lte=100"`
		MaxSwings      int     `yaml:"max_swings" default:"15" validate:"gte=5"`
		MaxResults     int     `yaml:"max_results" default:"10" validate:"gte=1"`
		Workers        int     `yaml:"workers" default:"0" validate:"gte=0"`
		Confirmation   bool    `yaml:"confirmation" default:"true"`
	} `yaml:"analyzer"`

	Labeler struct {
		MinProbability float64 `yaml:"min_probability" default:"60" validate:"gte=0,lte=100"`
		Stride         int     `yaml:"stride" default:"5" validate:"gte=1"`
		MaxPerStart    int     `yaml:"max_per_start" default:"3" validate:"gte=1"`
		MinWindow      int     `yaml:"min_window" default:"50" validate:"gte=10"`
		Strategy       string  `yaml:"strategy" default:"highest_probability" validate:"oneof=highest_probability longest_span chronological"`
		Workers        int     `yaml:"workers" default:"0" validate:"gte=0"`
	} `yaml:"labeler"`
}

// Load reads, defaults and validates a YAML configuration file. A missing
// path yields a configuration made entirely of defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("default config: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}
