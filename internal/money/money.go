// Package money representa montos en unidades menores (centavos) para
// evitar deriva de punto flotante en precios y billeteras.
package money

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money holds an amount in minor units: $10.50 is stored as 1050.
type Money struct {
	Cents int64
}

func FromCents(c int64) Money { return Money{Cents: c} }

func (m Money) Add(o Money) Money   { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Mul(qty int32) Money { return Money{Cents: m.Cents * int64(qty)} }

func (m Money) IsNegative() bool { return m.Cents < 0 }

// String renders the amount with two decimals: 1050 -> "10.50".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Parse accepts decimal notation with up to two fraction digits:
// "10", "10.5" and "10.50" all parse; "10.505" is rejected.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg, s = true, s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q", s)
	}
	cents := w * 100
	if frac != "" {
		if len(frac) > 2 {
			return Money{}, fmt.Errorf("amount %q has more than two decimals", s)
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return Money{}, fmt.Errorf("invalid amount %q", s)
		}
		cents += f
	}
	if neg {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}

// MarshalJSON emits decimal notation as a string.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either "10.50" or a bare JSON number.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
