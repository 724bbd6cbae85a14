package psu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidateConfig_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PortName = "/dev/ttyUSB0"

	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidateConfig_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty port name", func(c *Config) { c.PortName = "" }, "PortName cannot be empty"},
		{"letters in address", func(c *Config) { c.Address = "0A" }, "Address must be a two-digit number"},
		{"signed address", func(c *Config) { c.Address = "-1" }, "Address must be a two-digit number"},
		{"long address", func(c *Config) { c.Address = "001" }, "Address must be a two-digit number"},
		{"negative timeout", func(c *Config) { c.ReadTimeout = -time.Second }, "ReadTimeout cannot be negative"},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }, "Level must be one of"},
		{"negative log size", func(c *Config) { c.Log.MaxSizeMB = -1 }, "MaxSizeMB cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PortName = "/dev/ttyUSB0"
			tt.mutate(&cfg)

			err := ValidateConfig(&cfg)
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("expected %q error, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestValidateConfig_ReportsEveryField(t *testing.T) {
	cfg := Config{Address: "xx", ReadTimeout: -1}

	err := ValidateConfig(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"PortName", "Address", "ReadTimeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in error, got: %v", want, err)
		}
	}
}

func TestValidateConfig_ZeroTimeoutAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PortName = "COM3"
	cfg.ReadTimeout = 0

	if err := ValidateConfig(&cfg); err != nil {
		t.Fatalf("expected zero timeout to be valid, got: %v", err)
	}
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeConfigFile(t, "psu.toml", `
port_name = "/dev/ttyUSB1"
address = "03"
read_timeout = "500ms"

[log]
level = "debug"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.PortName != "/dev/ttyUSB1" || cfg.Address != "03" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReadTimeout != 500*time.Millisecond {
		t.Fatalf("expected 500ms read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_YAMLDefaults(t *testing.T) {
	path := writeConfigFile(t, "psu.yaml", "port_name: /dev/ttyUSB2\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.PortName != "/dev/ttyUSB2" {
		t.Fatalf("unexpected port name %q", cfg.PortName)
	}
	if cfg.Address != DefaultAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.ReadTimeout != DefaultReadTimeout {
		t.Fatalf("expected default read timeout, got %v", cfg.ReadTimeout)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Fatalf("expected default log level, got %q", cfg.Log.Level)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{"unsupported extension", "psu.json", `{}`, "unsupported config file extension"},
		{"bad toml", "psu.toml", `port_name = `, "parsing toml config"},
		{"invalid values", "psu.yml", "port_name: COM1\naddress: \"7\"\n", "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.file, tt.content)

			_, err := LoadConfig(path)
			if err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Fatalf("expected %q error, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
