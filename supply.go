package psu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxProgramStep is the highest step index the supply stores.
	MaxProgramStep = 99

	// Offsets of the display flags in a GPAL payload.
	displayTimerOffset     = 35
	displayFaultOffset     = 64
	displayOutputOnOffset  = 65
	displayOutputOffOffset = 66
)

// Reading is the measured output of the supply.
type Reading struct {
	Voltage decimal.Decimal
	Current decimal.Decimal
}

// Setpoint is a voltage/current pair: a limit, a preset or the active
// setting, depending on the command that returned it.
type Setpoint struct {
	Voltage decimal.Decimal
	Current decimal.Decimal
}

// ProgramStep is one entry of the supply's stored program.
type ProgramStep struct {
	Index   int
	Voltage decimal.Decimal
	Current decimal.Decimal
	Minutes int
	Seconds int
}

// Display holds the indicator flags shown on the supply's front panel.
type Display struct {
	Timer     bool
	Fault     bool
	OutputOn  bool
	OutputOff bool
}

// StartSession opens the supply's remote-control session.
func (c *Client) StartSession(ctx context.Context) error {
	return c.do(ctx, CodeSessionStart, "")
}

// EndSession returns the supply to front-panel control.
func (c *Client) EndSession(ctx context.Context) error {
	return c.do(ctx, CodeSessionEnd, "")
}

// SetVoltage sets the output voltage, in 0.1 V steps.
func (c *Client) SetVoltage(ctx context.Context, volts decimal.Decimal) error {
	param, err := c.encode(volts, 3, 10)
	if err != nil {
		return err
	}
	return c.do(ctx, CodeSetVoltage, param)
}

// SetCurrent sets the current limit, in 0.01 A steps.
func (c *Client) SetCurrent(ctx context.Context, amps decimal.Decimal) error {
	param, err := c.encode(amps, 3, 100)
	if err != nil {
		return err
	}
	return c.do(ctx, CodeSetCurrent, param)
}

// Reading returns the measured output voltage and current.
func (c *Client) Reading(ctx context.Context) (Reading, error) {
	payload, err := c.query(ctx, CodeReading, "")
	if err != nil {
		return Reading{}, err
	}

	f, err := c.fields(CodeReading, payload, []int{4, 4}, 1)
	if err != nil {
		return Reading{}, err
	}
	return Reading{Voltage: f[0].Shift(-2), Current: f[1].Shift(-3)}, nil
}

// Maxima returns the supply's upper voltage and current limits.
func (c *Client) Maxima(ctx context.Context) (Setpoint, error) {
	return c.setpoint(ctx, CodeMaxima)
}

// Settings returns the active voltage and current settings.
func (c *Client) Settings(ctx context.Context) (Setpoint, error) {
	return c.setpoint(ctx, CodeSettings)
}

// Memory returns the preset memories, in the order the supply lists them.
func (c *Client) Memory(ctx context.Context) ([]Setpoint, error) {
	payload, err := c.query(ctx, CodeMemory, "")
	if err != nil {
		return nil, err
	}

	records := strings.Fields(payload)
	presets := make([]Setpoint, 0, len(records))
	for i, rec := range records {
		f, err := c.fields(CodeMemory, rec, []int{3, 3}, 10)
		if err != nil {
			return nil, fmt.Errorf("memory record %d: %w", i, err)
		}
		presets = append(presets, Setpoint{Voltage: f[0], Current: f[1].Shift(-1)})
	}
	return presets, nil
}

// Program returns every stored program step. Index is the position of the
// record in the dump.
func (c *Client) Program(ctx context.Context) ([]ProgramStep, error) {
	payload, err := c.query(ctx, CodeProgram, "")
	if err != nil {
		return nil, err
	}

	records := strings.Fields(payload)
	steps := make([]ProgramStep, 0, len(records))
	for i, rec := range records {
		step, err := c.programStep(i, rec)
		if err != nil {
			return nil, fmt.Errorf("program record %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// ProgramStep returns one stored program step.
func (c *Client) ProgramStep(ctx context.Context, index int) (ProgramStep, error) {
	param, err := c.stepIndex(index)
	if err != nil {
		return ProgramStep{}, err
	}

	payload, err := c.query(ctx, CodeProgram, param)
	if err != nil {
		return ProgramStep{}, err
	}
	return c.programStep(index, payload)
}

// SetProgramStep stores step at step.Index. Every field is encoded before
// anything is sent.
func (c *Client) SetProgramStep(ctx context.Context, step ProgramStep) error {
	index, err := c.stepIndex(step.Index)
	if err != nil {
		return err
	}
	volts, err := c.encode(step.Voltage, 3, 10)
	if err != nil {
		return err
	}
	amps, err := c.encode(step.Current, 3, 100)
	if err != nil {
		return err
	}
	minutes, err := c.encode(decimal.NewFromInt(int64(step.Minutes)), 2, 1)
	if err != nil {
		return err
	}
	seconds, err := c.encode(decimal.NewFromInt(int64(step.Seconds)), 2, 1)
	if err != nil {
		return err
	}

	return c.do(ctx, CodeSetProgram, index+volts+amps+minutes+seconds)
}

// RunProgram runs the stored program for the given number of cycles.
func (c *Client) RunProgram(ctx context.Context, cycles int) error {
	param, err := c.encode(decimal.NewFromInt(int64(cycles)), 4, 1)
	if err != nil {
		return err
	}
	return c.do(ctx, CodeRunProgram, param)
}

// StopProgram stops a running program.
func (c *Client) StopProgram(ctx context.Context) error {
	return c.do(ctx, CodeStopProgram, "")
}

// Display returns the front-panel indicator flags. A flag is set when the
// supply reports '0' at its position.
func (c *Client) Display(ctx context.Context) (Display, error) {
	payload, err := c.query(ctx, CodeDisplay, "")
	if err != nil {
		return Display{}, err
	}
	return c.parseDisplay(payload)
}

// EnableOutput switches the output on.
func (c *Client) EnableOutput(ctx context.Context) error {
	return c.do(ctx, CodeOutput, "0")
}

// DisableOutput switches the output off.
func (c *Client) DisableOutput(ctx context.Context) error {
	return c.do(ctx, CodeOutput, "1")
}

// query runs an exchange that must be answered and returns its payload.
func (c *Client) query(ctx context.Context, code, param string) (string, error) {
	resp, err := c.Exec(ctx, Command{Code: code, Address: c.address, Param: param})
	if err != nil {
		return "", err
	}
	if !resp.Answered {
		return "", ErrNoResponse
	}
	return resp.Payload, nil
}

func (c *Client) do(ctx context.Context, code, param string) error {
	_, err := c.query(ctx, code, param)
	return err
}

func (c *Client) setpoint(ctx context.Context, code string) (Setpoint, error) {
	payload, err := c.query(ctx, code, "")
	if err != nil {
		return Setpoint{}, err
	}

	f, err := c.fields(code, payload, []int{3, 3}, 10)
	if err != nil {
		return Setpoint{}, err
	}
	return Setpoint{Voltage: f[0], Current: f[1]}, nil
}

func (c *Client) programStep(index int, rec string) (ProgramStep, error) {
	f, err := c.fields(CodeProgram, rec, []int{3, 3, 2, 2}, 1)
	if err != nil {
		return ProgramStep{}, err
	}
	return ProgramStep{
		Index:   index,
		Voltage: f[0].Shift(-1),
		Current: f[1].Shift(-2),
		Minutes: int(f[2].IntPart()),
		Seconds: int(f[3].IntPart()),
	}, nil
}

func (c *Client) parseDisplay(payload string) (Display, error) {
	if len(payload) <= displayOutputOffOffset {
		c.metrics.recordFormatError()
		return Display{}, &FormatError{
			Command: CodeDisplay,
			Offset:  len(payload),
			Reason:  fmt.Sprintf("payload too short: need %d bytes, have %d", displayOutputOffOffset+1, len(payload)),
		}
	}
	return Display{
		Timer:     payload[displayTimerOffset] == '0',
		Fault:     payload[displayFaultOffset] == '0',
		OutputOn:  payload[displayOutputOnOffset] == '0',
		OutputOff: payload[displayOutputOffOffset] == '0',
	}, nil
}

// fields splits a payload and tags any failure with the command code.
func (c *Client) fields(code, payload string, widths []int, scale int64) ([]decimal.Decimal, error) {
	f, err := SplitFields(payload, widths, scale)
	if err != nil {
		c.metrics.recordFormatError()
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Command = code
		}
		return nil, err
	}
	return f, nil
}

func (c *Client) stepIndex(index int) (string, error) {
	if index < 0 || index > MaxProgramStep {
		c.metrics.recordEncodingError()
		return "", &EncodingError{
			Value:  decimal.NewFromInt(int64(index)),
			Width:  2,
			Scale:  1,
			Reason: fmt.Sprintf("step index must be 0-%d", MaxProgramStep),
		}
	}
	return c.encode(decimal.NewFromInt(int64(index)), 2, 1)
}

func (c *Client) encode(value decimal.Decimal, width int, scale int64) (string, error) {
	s, err := Encode(value, width, scale)
	if err != nil {
		c.metrics.recordEncodingError()
		return "", err
	}
	return s, nil
}
