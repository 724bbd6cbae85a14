package psu

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrClosed = errors.New("psu: client closed")

	// ErrNoResponse is returned by typed operations when the supply sent
	// nothing within the read timeout. It is recoverable.
	ErrNoResponse = errors.New("psu: no response from supply")

	ErrLineTooLong = errors.New("psu: response line exceeds maximum size")
)

var (
	ErrMsgNilTransport = "transport is nil"
)

// FormatError reports a response payload that does not match the fixed
// field layout of the command that produced it.
type FormatError struct {
	// Command is the four-letter code of the exchange, if known.
	Command string

	// Offset is the byte offset in the payload where parsing failed.
	Offset int

	Reason string

	Err error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("psu: malformed payload at offset %d: %s", e.Offset, e.Reason)
	if e.Command != "" {
		msg = fmt.Sprintf("psu: malformed %s payload at offset %d: %s", e.Command, e.Offset, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// EncodingError reports a value that cannot be represented in its field.
// It is always raised before anything is written to the transport.
type EncodingError struct {
	Value decimal.Decimal
	Width int
	Scale int64

	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("psu: cannot encode %s in %d digits at scale %d: %s",
		e.Value.String(), e.Width, e.Scale, e.Reason)
}

// TransportError wraps a failure of the underlying byte stream.
type TransportError struct {
	// Op is the transport operation that failed, e.g. "write" or "read".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("psu: transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsFormatError returns true if err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsEncodingError returns true if err is or wraps an EncodingError.
func IsEncodingError(err error) bool {
	var ee *EncodingError
	return errors.As(err, &ee)
}

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
