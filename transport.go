package psu

import (
	"errors"
	"io"
	"time"

	"go.bug.st/serial"
)

// Transport is the duplex byte stream a Client drives. It is the subset of
// go.bug.st/serial.Port the protocol needs; tests substitute a scripted fake.
//
// Read must return (0, nil) when the read timeout elapses with nothing
// received, and io.EOF once the stream is closed.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)

	// Drain blocks until everything written has been transmitted.
	Drain() error

	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error

	// ResetOutputBuffer discards bytes written but not yet transmitted.
	ResetOutputBuffer() error

	SetReadTimeout(d time.Duration) error
	Close() error
}

// bugstPort wraps the concrete serial.Port to satisfy Transport.
type bugstPort struct {
	serial.Port
}

// Read maps a closed-port error to io.EOF so the client treats it as the
// end of the stream rather than a fault.
func (b *bugstPort) Read(p []byte) (int, error) {
	n, err := b.Port.Read(p)
	var perr *serial.PortError
	if errors.As(err, &perr) && perr.Code() == serial.PortClosed {
		return n, io.EOF
	}
	return n, err
}
