package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/photobooth/internal/filter"
	"github.com/lehigh-university-libraries/photobooth/internal/sequencer"
	"gopkg.in/yaml.v3"
)

const (
	defaultSource    = "pattern"
	defaultOutputDir = "strips"
	defaultPort      = "8888"
)

// Timing tunes the pauses of a run. Photo count and countdown length are fixed.
type Timing struct {
	Tick       time.Duration `yaml:"tick"`
	PhotoDelay time.Duration `yaml:"photo_delay"`
}

// Config holds booth settings from the YAML file and PHOTOBOOTH_* variables
type Config struct {
	Source     string `yaml:"source"`
	Filter     string `yaml:"filter"`
	OutputDir  string `yaml:"output_dir"`
	DateLayout string `yaml:"date_layout"`
	Port       string `yaml:"port"`
	Timing     Timing `yaml:"timing"`
}

var ErrInvalidConfig = errors.New("invalid config")

func Default() Config {
	return Config{
		Source:    defaultSource,
		Filter:    string(filter.None),
		OutputDir: defaultOutputDir,
		Port:      defaultPort,
		Timing: Timing{
			Tick:       sequencer.DefaultTick,
			PhotoDelay: sequencer.DefaultPhotoDelay,
		},
	}
}

// Load reads path on top of the defaults, then applies environment overrides.
// A missing file is only an error when path was given explicitly.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"PHOTOBOOTH_SOURCE":      &c.Source,
		"PHOTOBOOTH_FILTER":      &c.Filter,
		"PHOTOBOOTH_OUTPUT_DIR":  &c.OutputDir,
		"PHOTOBOOTH_DATE_LAYOUT": &c.DateLayout,
		"PHOTOBOOTH_PORT":        &c.Port,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

func (c *Config) normalize() {
	c.Filter = strings.ToLower(strings.TrimSpace(c.Filter))
	if c.Source == "" {
		c.Source = defaultSource
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	if c.Port == "" {
		c.Port = defaultPort
	}
	if c.Timing.Tick == 0 {
		c.Timing.Tick = sequencer.DefaultTick
	}
	if c.Timing.PhotoDelay == 0 {
		c.Timing.PhotoDelay = sequencer.DefaultPhotoDelay
	}
}

func (c Config) Validate() error {
	if _, err := filter.Parse(c.Filter); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Timing.Tick < 0 || c.Timing.PhotoDelay < 0 {
		return fmt.Errorf("%w: timings must not be negative", ErrInvalidConfig)
	}
	return nil
}

// SelectedFilter returns the configured filter; Validate has already checked it
func (c Config) SelectedFilter() filter.Filter {
	f, _ := filter.Parse(c.Filter)
	return f
}

// SequencerSettings returns the fixed run shape with the configured timings
func (c Config) SequencerSettings() sequencer.Settings {
	s := sequencer.DefaultSettings()
	s.Tick = c.Timing.Tick
	s.PhotoDelay = c.Timing.PhotoDelay
	return s
}
