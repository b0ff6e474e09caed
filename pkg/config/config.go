// Package config loads session settings from YAML.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ResolveMode selects when timing results are read back.
type ResolveMode string

const (
	// ResolveSubmit reads results when the sampled command lists are submitted.
	ResolveSubmit ResolveMode = "submit"
	// ResolveImmediate reads each result before its call returns.
	ResolveImmediate ResolveMode = "immediate"
)

// DefaultMeasurementsPerGroup bounds the samples taken on one command buffer in
// one frame.
const DefaultMeasurementsPerGroup = 256

// Config holds session settings.
type Config struct {
	CollectGPUTime    bool     `yaml:"collectGPUTime"`
	CollectAPITrace   bool     `yaml:"collectAPITrace"`
	CollectFrameStats bool     `yaml:"collectFrameStats"`
	ProfiledFunctions []string `yaml:"profiledFunctions,omitempty"`
	// TimingLibrary is the path of a native timing backend to load. Empty uses
	// the backend passed to the session.
	TimingLibrary        string      `yaml:"timingLibrary,omitempty"`
	MeasurementsPerGroup uint32      `yaml:"measurementsPerGroup"`
	ResolveMode          ResolveMode `yaml:"resolveMode"`
	LogLevel             string      `yaml:"logLevel"`
	// ETWProvider names an ETW provider to mirror logs and calls to. Windows only.
	ETWProvider string `yaml:"etwProvider,omitempty"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		CollectGPUTime:       true,
		CollectAPITrace:      true,
		MeasurementsPerGroup: DefaultMeasurementsPerGroup,
		ResolveMode:          ResolveSubmit,
		LogLevel:             logrus.InfoLevel.String(),
	}
}

// Load reads and validates the file at path. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	c, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// Parse decodes and validates YAML. Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.ResolveMode {
	case ResolveSubmit, ResolveImmediate:
	default:
		return errors.Errorf("invalid resolveMode %q", c.ResolveMode)
	}
	if c.MeasurementsPerGroup == 0 {
		return errors.New("measurementsPerGroup must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.CollectFrameStats && c.CollectGPUTime {
		return errors.New("collectFrameStats cannot be combined with collectGPUTime")
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	l, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return 0, errors.Wrap(err, "logLevel")
	}
	return l, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
