// Package config loads LipidKey settings from TOML files and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = "lipidkey.toml"

// Inference contains adduct inference settings.
type Inference struct {
	BaseTolerance   float64 `toml:"base_tolerance"`   // Da window for the base peak
	PPMTolerance    int     `toml:"ppm_tolerance"`    // partner peak tolerance
	PositiveCatalog string  `toml:"positive_catalog"` // optional CSV replacing the built-in table
	NegativeCatalog string  `toml:"negative_catalog"`
}

// Filter contains grouped-peak filter settings.
type Filter struct {
	TopN            int     `toml:"top_n"`
	IntensityCutoff float64 `toml:"intensity_cutoff"`
	MinMZ           float64 `toml:"min_mz"`
	MaxMZ           float64 `toml:"max_mz"`
}

// Scoring contains pairwise scoring settings.
type Scoring struct {
	Workers int `toml:"workers"` // 0 = one per CPU
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Output contains result database settings.
type Output struct {
	Overwrite bool `toml:"overwrite"`
}

// Server contains HTTP API settings.
type Server struct {
	Addr string `toml:"addr"`
}

// Config encapsulates all configuration values for LipidKey.
type Config struct {
	Inference Inference `toml:"inference"`
	Filter    Filter    `toml:"filter"`
	Scoring   Scoring   `toml:"scoring"`
	Logging   Logging   `toml:"logging"`
	Output    Output    `toml:"output"`
	Server    Server    `toml:"server"`
}

// Load reads the config file at path, or DefaultFileName when path is empty.
// A missing file yields defaults; exists reports whether a file was read.
func Load(path string) (cfg *Config, exists bool, err error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := Decode(file, &c); err != nil {
			return nil, false, err
		}
		exists = true
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, false, fmt.Errorf("config file does not exist: %s", path)
		}
	default:
		return nil, false, fmt.Errorf("open config: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, false, err
	}

	if err := c.Validate(); err != nil {
		return nil, false, err
	}

	return &c, exists, nil
}

// Decode parses TOML into cfg, rejecting unknown keys.
func Decode(r io.Reader, cfg *Config) error {
	decoder := toml.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("LIPIDKEY_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LIPIDKEY_LOG_FORMAT")); v != "" {
		c.Logging.Format = v
	}
	if v := strings.TrimSpace(os.Getenv("LIPIDKEY_WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIPIDKEY_WORKERS: invalid value %q: %w", v, err)
		}
		c.Scoring.Workers = n
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Inference.BaseTolerance <= 0 {
		return errors.New("inference.base_tolerance must be positive")
	}
	if c.Inference.PPMTolerance < 0 {
		return errors.New("inference.ppm_tolerance must be non-negative")
	}
	if c.Filter.TopN < 0 {
		return errors.New("filter.top_n must be non-negative")
	}
	if c.Filter.IntensityCutoff < 0 || c.Filter.IntensityCutoff > 100 {
		return errors.New("filter.intensity_cutoff must be between 0 and 100")
	}
	if c.Scoring.Workers < 0 {
		return errors.New("scoring.workers must be non-negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "console", "text", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
