package psu

import "fmt"

const (
	// DefaultAddress is the bus address used when none is configured.
	DefaultAddress = "00"

	// LineDelimiter terminates every command and response line.
	LineDelimiter byte = '\r'

	// OKLine is the exact line that ends a successful exchange.
	OKLine = "OK\r"
)

// Supply command codes.
const (
	CodeSessionStart = "SESS"
	CodeSessionEnd   = "ENDS"
	CodeSetCurrent   = "CURR"
	CodeSetVoltage   = "VOLT"
	CodeReading      = "GETD"
	CodeMaxima       = "GMAX"
	CodeMemory       = "GETM"
	CodeProgram      = "GETP"
	CodeSetProgram   = "PROP"
	CodeRunProgram   = "RUNP"
	CodeStopProgram  = "STOP"
	CodeDisplay      = "GPAL"
	CodeSettings     = "GETS"
	CodeOutput       = "SOUT"
)

// Command is one request line: a four-letter code, a two-digit address and
// an already-encoded parameter string.
type Command struct {
	Code    string
	Address string
	Param   string
}

// NewCommand returns a command for the default address.
func NewCommand(code, param string) Command {
	return Command{Code: code, Address: DefaultAddress, Param: param}
}

// String renders the command as it is sent on the wire, CR included.
func (c Command) String() string {
	addr := c.Address
	if addr == "" {
		addr = DefaultAddress
	}
	return c.Code + addr + c.Param + string(LineDelimiter)
}

// validate checks the parts of the command that would desynchronize the
// supply's parser if sent malformed.
func (c Command) validate() error {
	if len(c.Code) != 4 {
		return fmt.Errorf("psu: command code %q must be 4 characters", c.Code)
	}
	if c.Address != "" && !isDigits(c.Address, 2) {
		return fmt.Errorf("psu: address %q must be 2 digits", c.Address)
	}
	for i := 0; i < len(c.Param); i++ {
		if c.Param[i] == LineDelimiter {
			return fmt.Errorf("psu: parameter for %s contains a line delimiter", c.Code)
		}
	}
	return nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
