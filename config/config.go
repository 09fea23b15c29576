// Package config loads the TOML settings shared by all rtbvh commands.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/benlowenthal/browser-raytracing/bvh"
	"github.com/benlowenthal/browser-raytracing/log"
)

type Config struct {
	BVH     BVHConfig     `toml:"bvh"`
	Compile CompileConfig `toml:"compile"`
	Logging LogConfig     `toml:"logging"`
}

// Settings for the BVH builder.
type BVHConfig struct {
	Strategy    string `toml:"strategy"`
	Bins        int    `toml:"bins"`
	Intervals   int    `toml:"intervals"`
	MinLeafSize int    `toml:"min_leaf_size"`
}

// Settings for compiling meshes into scenes.
type CompileConfig struct {
	Workers int  `toml:"workers"`
	FlipZ   bool `toml:"flip_z"`
}

// LogConfig configures the log level and an optional rotating log file.
// MaxSize is in megabytes and MaxAge in days.
type LogConfig struct {
	Level   string `toml:"level"`
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
}

// Get the default configuration.
func Default() *Config {
	opts := bvh.DefaultOptions()
	return &Config{
		BVH: BVHConfig{
			Strategy:    opts.Strategy.String(),
			Bins:        opts.Bins,
			Intervals:   opts.Intervals,
			MinLeafSize: opts.MinLeafSize,
		},
		Compile: CompileConfig{
			Workers: 4,
		},
		Logging: LogConfig{
			Level:   "notice",
			MaxSize: 10,
			MaxAge:  7,
		},
	}
}

// Load a TOML configuration file on top of the defaults. Keys that are not
// recognized are reported as errors. A relative logfile path is resolved
// against the directory of the config file.
func Load(filename string) (*Config, error) {
	c := Default()
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, fmt.Errorf("config: could not decode TOML config: %v", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for index, key := range undecoded {
			keys[index] = key.String()
		}
		return nil, fmt.Errorf("config: unknown settings in %s: %s", filename, strings.Join(keys, ", "))
	}

	if c.Logging.Logfile != "" && !filepath.IsAbs(c.Logging.Logfile) {
		c.Logging.Logfile = filepath.Join(filepath.Dir(filename), c.Logging.Logfile)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Check that all settings hold usable values.
func (c *Config) Validate() error {
	if _, err := bvh.ParseStrategy(c.BVH.Strategy); err != nil {
		return fmt.Errorf("config: [bvh] %v", err)
	}
	if c.BVH.Bins < 2 {
		return fmt.Errorf("config: [bvh] bins must be at least 2; got %d", c.BVH.Bins)
	}
	if c.BVH.Intervals < 2 {
		return fmt.Errorf("config: [bvh] intervals must be at least 2; got %d", c.BVH.Intervals)
	}
	if c.BVH.MinLeafSize < 1 {
		return fmt.Errorf("config: [bvh] min_leaf_size must be at least 1; got %d", c.BVH.MinLeafSize)
	}
	if c.Compile.Workers < 0 {
		return fmt.Errorf("config: [compile] workers must not be negative; got %d", c.Compile.Workers)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: [logging] %v", err)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxAge < 0 {
		return fmt.Errorf("config: [logging] max_log_size and max_log_age must not be negative")
	}
	return nil
}

// Get the BVH builder options. Validate must have succeeded.
func (c *Config) BuilderOptions() bvh.Options {
	strategy, _ := bvh.ParseStrategy(c.BVH.Strategy)
	return bvh.Options{
		Strategy:    strategy,
		Bins:        c.BVH.Bins,
		Intervals:   c.BVH.Intervals,
		MinLeafSize: c.BVH.MinLeafSize,
	}
}

// Get the log file settings.
func (c *Config) LogFileConfig() log.FileConfig {
	return log.FileConfig{
		Filename: c.Logging.Logfile,
		MaxSize:  c.Logging.MaxSize,
		MaxAge:   c.Logging.MaxAge,
	}
}
