package psu

import (
	gobug "go.bug.st/serial"
)

// The supply only speaks 9600 baud, 8 data bits, no parity, 1 stop bit.
const (
	supplyBaudRate = 9600
	supplyDataBits = 8
)

// SupplyMode returns the fixed line settings of the supply's serial port.
func SupplyMode() *gobug.Mode {
	return &gobug.Mode{
		BaudRate: supplyBaudRate,
		DataBits: supplyDataBits,
		Parity:   gobug.NoParity,
		StopBits: gobug.OneStopBit,
	}
}
