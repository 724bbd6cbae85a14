package psu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultReadTimeout = time.Second
	DefaultLogLevel    = "info"
)

// Config holds what varies between installations. The serial line settings
// are fixed by the supply and are not part of it; see SupplyMode.
type Config struct {
	// PortName is the path to the serial device, e.g. /dev/ttyUSB0.
	PortName string `toml:"port_name" yaml:"port_name" validate:"required"`

	// Address is the two-digit bus address sent with every command.
	Address string `toml:"address" yaml:"address" validate:"len=2,number"`

	// ReadTimeout bounds each byte read. Zero polls without blocking, which
	// makes any exchange that is not answered instantly report no response.
	ReadTimeout time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`

	Log LogConfig `toml:"log" yaml:"log"`
}

// LogConfig selects the log level and, optionally, a rotated log file.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`

	// File, when set, sends logs to a rotated file instead of stderr.
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
}

// DefaultConfig returns a Config with every optional field set.
func DefaultConfig() Config {
	return Config{
		Address:     DefaultAddress,
		ReadTimeout: DefaultReadTimeout,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig reads a TOML or YAML file over DefaultConfig and validates
// the result. The format is chosen by file extension.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err = toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parsing toml config: %w", err)
		}
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config file extension %q", ext)
	}

	applyDefaults(&cfg)

	if err = ValidateConfig(&cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults fills fields a file may have cleared explicitly.
func applyDefaults(cfg *Config) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
