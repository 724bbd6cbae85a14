package psu

import "testing"

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{NewCommand(CodeSessionStart, ""), "SESS00\r"},
		{NewCommand(CodeSetVoltage, "123"), "VOLT00123\r"},
		{Command{Code: CodeProgram, Address: "07", Param: "03"}, "GETP0703\r"},
		{Command{Code: CodeOutput, Param: "1"}, "SOUT001\r"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}
