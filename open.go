package psu

import (
	"fmt"

	gobug "go.bug.st/serial"
)

// allow tests to override the serial port
var openPort = func(name string, mode *gobug.Mode) (gobug.Port, error) { return gobug.Open(name, mode) }

// Open opens cfg.PortName with the supply's fixed line settings, applies the
// configured read timeout and returns a Client that owns the port.
//
// A logger built from cfg.Log is installed first; a WithLogger option
// replaces it.
func Open(cfg Config, opts ...Option) (*Client, error) {
	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid supply configuration: %w", err)
	}

	logger, logCloser, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	p, err := openPort(cfg.PortName, SupplyMode())
	if err != nil {
		return nil, handleOpenError(nil, logCloser, fmt.Errorf("opening serial port: %w", err))
	}

	if err = p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		return nil, handleOpenError(p, logCloser, fmt.Errorf("setting read timeout: %w", err))
	}

	base := []Option{
		WithLogger(logger.With().Str("port", cfg.PortName).Logger()),
		withLogCloser(logCloser),
		WithAddress(cfg.Address),
	}
	c, err := New(&bugstPort{Port: p}, append(base, opts...)...)
	if err != nil {
		return nil, handleOpenError(p, logCloser, err)
	}

	c.log.Info().Dur("read_timeout", cfg.ReadTimeout).Msg("supply port opened")
	return c, nil
}
