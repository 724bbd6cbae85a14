package psu

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// divisionPrecision bounds the digits kept when a scale is not a power of ten.
const divisionPrecision = 16

// Encode converts value into the supply's zero-padded fixed-point format:
// value*scale, truncated toward zero, left-padded with '0' to width digits.
//
// A value whose scaled integer needs more than width digits, or a negative
// value, is rejected with an EncodingError rather than sent truncated.
func Encode(value decimal.Decimal, width int, scale int64) (string, error) {
	if width <= 0 || scale <= 0 {
		return "", &EncodingError{Value: value, Width: width, Scale: scale, Reason: "invalid field layout"}
	}
	if value.IsNegative() {
		return "", &EncodingError{Value: value, Width: width, Scale: scale, Reason: "negative value"}
	}

	digits := value.Mul(decimal.NewFromInt(scale)).Truncate(0).BigInt().String()
	if len(digits) > width {
		return "", &EncodingError{
			Value:  value,
			Width:  width,
			Scale:  scale,
			Reason: fmt.Sprintf("needs %d digits", len(digits)),
		}
	}

	return strings.Repeat("0", width-len(digits)) + digits, nil
}

// Decode parses an unsigned decimal digit string and divides it by scale.
// Power-of-ten scales are applied as an exact decimal shift.
func Decode(field string, scale int64) (decimal.Decimal, error) {
	return decodeAt(field, 0, scale)
}

// SplitFields consumes text left to right, one field per entry in widths,
// and decodes each at scale. Bytes after the last field are ignored.
func SplitFields(text string, widths []int, scale int64) ([]decimal.Decimal, error) {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(text) < total {
		return nil, &FormatError{
			Offset: len(text),
			Reason: fmt.Sprintf("payload too short: need %d bytes, have %d", total, len(text)),
		}
	}

	values := make([]decimal.Decimal, 0, len(widths))
	pos := 0
	for _, w := range widths {
		v, err := decodeAt(text[pos:pos+w], pos, scale)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		pos += w
	}
	return values, nil
}

func decodeAt(field string, offset int, scale int64) (decimal.Decimal, error) {
	if scale <= 0 {
		return decimal.Zero, &FormatError{Offset: offset, Reason: fmt.Sprintf("invalid scale %d", scale)}
	}
	if field == "" {
		return decimal.Zero, &FormatError{Offset: offset, Reason: "empty numeric field"}
	}
	for i := 0; i < len(field); i++ {
		if field[i] < '0' || field[i] > '9' {
			return decimal.Zero, &FormatError{
				Offset: offset + i,
				Reason: fmt.Sprintf("non-digit %q in numeric field %q", field[i], field),
			}
		}
	}

	n, err := decimal.NewFromString(field)
	if err != nil {
		return decimal.Zero, &FormatError{Offset: offset, Reason: "unparsable numeric field", Err: err}
	}
	return scaleDown(n, scale), nil
}

// scaleDown divides d by scale.
func scaleDown(d decimal.Decimal, scale int64) decimal.Decimal {
	if exp, ok := powerOfTen(scale); ok {
		return d.Shift(-exp)
	}
	return d.DivRound(decimal.NewFromInt(scale), divisionPrecision)
}

func powerOfTen(n int64) (int32, bool) {
	var exp int32
	for n > 1 {
		if n%10 != 0 {
			return 0, false
		}
		n /= 10
		exp++
	}
	return exp, n == 1
}
