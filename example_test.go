package psu_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Station-Manager/psu"
)

func Example() {
	cfg := psu.DefaultConfig()
	cfg.PortName = "/dev/ttyUSB0"
	cfg.ReadTimeout = 500 * time.Millisecond

	supply, err := psu.Open(cfg)
	if err != nil {
		fmt.Println("open error:", err)
		return
	}
	defer supply.Close()

	ctx := context.Background()
	if err = supply.StartSession(ctx); err != nil {
		fmt.Println("session error:", err)
		return
	}
	defer supply.EndSession(ctx)

	if err = supply.SetVoltage(ctx, decimal.RequireFromString("12.3")); err != nil {
		fmt.Println("set voltage error:", err)
		return
	}
	if err = supply.EnableOutput(ctx); err != nil {
		fmt.Println("enable error:", err)
		return
	}

	reading, err := supply.Reading(ctx)
	if errors.Is(err, psu.ErrNoResponse) {
		fmt.Println("supply did not answer")
		return
	}
	if err != nil {
		fmt.Println("reading error:", err)
		return
	}

	fmt.Printf("output: %s V, %s A\n", reading.Voltage, reading.Current)
}

func ExampleEncode() {
	field, err := psu.Encode(decimal.RequireFromString("1.25"), 3, 100)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(field)

	_, err = psu.Encode(decimal.RequireFromString("10"), 3, 100)
	fmt.Println(psu.IsEncodingError(err))
	// Output:
	// 125
	// true
}

func ExampleSplitFields() {
	values, err := psu.SplitFields("12300056\r", []int{4, 4}, 1)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(values[0].Shift(-2).StringFixed(2), values[1].Shift(-3).StringFixed(3))
	// Output:
	// 12.30 0.056
}
