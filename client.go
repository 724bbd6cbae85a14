// Package psu drives a bench power supply over its serial ASCII protocol.
//
// Every supply operation is one exchange: the client clears the port
// buffers, writes a CR-terminated command line and collects CR-terminated
// response lines until the supply sends "OK\r" or the read timeout passes
// with nothing received. Numeric fields are fixed-width zero-padded decimal
// digits; see Encode, Decode and SplitFields.
//
// A Client is not safe for concurrent use. The protocol allows one
// outstanding request; callers sharing a Client must serialize access.
package psu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// MaxLineSize bounds a single response line, delimiter included.
	MaxLineSize = 4096

	// MaxPayloadSize bounds the data lines of one exchange. A full program
	// dump is far below this.
	MaxPayloadSize = 64 * 1024
)

// Response is the result of one exchange.
type Response struct {
	// Answered is false when the supply sent nothing within the read
	// timeout. That is an expected outcome, not an error.
	Answered bool

	// Payload is every line received before "OK\r", concatenated with
	// their CR delimiters. It is empty for commands without a return value.
	Payload string
}

// Lines splits Payload into its lines, delimiters removed.
func (r Response) Lines() []string {
	if r.Payload == "" {
		return nil
	}
	lines := strings.Split(r.Payload, string(LineDelimiter))
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Client performs command/response exchanges with one supply. It owns its
// Transport for its whole lifetime.
type Client struct {
	port    Transport
	address string
	id      string

	log       zerolog.Logger
	logCloser io.Closer

	metrics *Metrics
	lines   *BufferPool

	closed atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Sent and received lines are logged at debug
// level.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithAddress sets the two-digit bus address used for typed operations.
func WithAddress(address string) Option {
	return func(c *Client) {
		c.address = address
	}
}

// WithMetrics makes the client record into m instead of its own Metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

func withLogCloser(cl io.Closer) Option {
	return func(c *Client) {
		c.logCloser = cl
	}
}

// New wraps an already opened transport. The transport's read timeout must
// be set by the caller; see Client.SetReadTimeout.
func New(t Transport, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errors.New(ErrMsgNilTransport)
	}

	c := &Client{
		port:    t,
		address: DefaultAddress,
		id:      uuid.NewString(),
		log:     zerolog.Nop(),
		metrics: &Metrics{},
		lines:   NewBufferPool(MaxLineSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	if !isDigits(c.address, 2) {
		return nil, fmt.Errorf("psu: address %q must be 2 digits", c.address)
	}

	c.log = c.log.With().Str("client", c.id).Str("address", c.address).Logger()
	return c, nil
}

// ID returns the instance id attached to this client's log events.
func (c *Client) ID() string {
	return c.id
}

// Metrics returns the live counters of this client.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// MetricsSnapshot returns the current counters with derived health.
func (c *Client) MetricsSnapshot() *Snapshot {
	return c.metrics.Snapshot(!c.closed.Load())
}

// SetReadTimeout changes how long a single byte read may wait. It is the
// deadline for an unanswered exchange.
func (c *Client) SetReadTimeout(d time.Duration) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.port.SetReadTimeout(d); err != nil {
		return &TransportError{Op: "set read timeout", Err: err}
	}
	return nil
}

// Close closes the transport. It is safe to call multiple times.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if e := c.port.Close(); e != nil {
		err = &TransportError{Op: "close", Err: e}
	}
	if c.logCloser != nil {
		if e := c.logCloser.Close(); e != nil {
			err = errors.Join(err, e)
		}
	}
	return err
}

// Exec performs one exchange. The command's address defaults to the
// client's address.
//
// A nil error with Answered false means the supply stayed silent for the
// read timeout. Errors are reserved for transport failures, malformed
// framing, a closed client and context cancellation. Exec never retries:
// every call is at most one command on the wire.
func (c *Client) Exec(ctx context.Context, cmd Command) (Response, error) {
	if c.closed.Load() {
		return Response{}, ErrClosed
	}
	if cmd.Address == "" {
		cmd.Address = c.address
	}
	if err := cmd.validate(); err != nil {
		return Response{}, err
	}

	start := time.Now()
	resp, written, read, err := c.exchange(ctx, cmd)
	c.metrics.recordExchange(classify(resp, err), written, read, time.Since(start))

	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) && fe.Command == "" {
			fe.Command = cmd.Code
		}
		if IsTransportError(err) {
			c.log.Error().Err(err).Str("command", cmd.Code).Msg("exchange failed")
		}
		return Response{}, err
	}
	return resp, nil
}

// lineState is the read loop's view of the line being collected.
type lineState int

const (
	awaitingLine lineState = iota
	lineComplete
	noData
)

func (c *Client) exchange(ctx context.Context, cmd Command) (resp Response, written, read int, err error) {
	// Stale bytes from an earlier unanswered exchange would be taken as
	// this command's response.
	if err = c.port.ResetInputBuffer(); err != nil {
		return resp, 0, 0, &TransportError{Op: "reset input buffer", Err: err}
	}
	if err = c.port.ResetOutputBuffer(); err != nil {
		return resp, 0, 0, &TransportError{Op: "reset output buffer", Err: err}
	}

	line := cmd.String()
	c.log.Debug().Str("line", strconv.Quote(line)).Msg("send")
	if written, err = c.writeLine(ctx, []byte(line)); err != nil {
		return resp, written, 0, err
	}

	buf := c.lines.Get()
	defer func() { c.lines.Put(buf) }()

	var payload strings.Builder
	for {
		var state lineState
		buf, state, err = c.readLine(ctx, buf[:0])
		read += len(buf)
		if err != nil {
			return Response{}, written, read, err
		}

		switch state {
		case noData:
			// A partial line without its delimiter is dropped with the rest.
			c.log.Debug().Str("command", cmd.Code).Int("partial", len(buf)).Msg("received no data in timeout period")
			return Response{}, written, read, nil
		case lineComplete:
			got := string(buf)
			c.log.Debug().Str("line", strconv.Quote(got)).Msg("received")
			if got == OKLine {
				return Response{Answered: true, Payload: payload.String()}, written, read, nil
			}
			if payload.Len()+len(got) > MaxPayloadSize {
				return Response{}, written, read, &FormatError{
					Offset: payload.Len(),
					Reason: fmt.Sprintf("payload exceeds %d bytes", MaxPayloadSize),
				}
			}
			payload.WriteString(got)
		}
	}
}

// writeLine writes data fully, then drains the transport.
func (c *Client) writeLine(ctx context.Context, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, err := c.port.Write(data[written:])
		written += n
		if err != nil {
			return written, &TransportError{Op: "write", Err: err}
		}
		if n == 0 {
			// Prevent infinite loop if Write returns 0
			return written, &TransportError{Op: "write", Err: io.ErrShortWrite}
		}
	}

	if err := c.port.Drain(); err != nil {
		return written, &TransportError{Op: "drain", Err: err}
	}
	return written, nil
}

// readLine reads one byte at a time into buf until the delimiter arrives
// (lineComplete) or a read yields nothing (noData). The context is checked
// before every read.
func (c *Client) readLine(ctx context.Context, buf []byte) ([]byte, lineState, error) {
	var b [1]byte
	for {
		if err := ctx.Err(); err != nil {
			return buf, awaitingLine, err
		}

		n, err := c.port.Read(b[:])
		if n > 0 {
			buf = append(buf, b[0])
			if b[0] == LineDelimiter {
				return buf, lineComplete, nil
			}
			if len(buf) >= MaxLineSize {
				return buf, awaitingLine, &FormatError{
					Offset: len(buf),
					Reason: "no line delimiter",
					Err:    ErrLineTooLong,
				}
			}
		}

		switch {
		case err == nil && n > 0:
			continue
		case err == nil, errors.Is(err, io.EOF):
			if n == 0 {
				return buf, noData, nil
			}
		default:
			return buf, awaitingLine, &TransportError{Op: "read", Err: err}
		}
	}
}
