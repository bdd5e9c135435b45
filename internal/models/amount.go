package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// Amount is a token amount in base units. It wraps big.Int because on-chain
// values are 256-bit, and maps to NUMERIC(78,0) in PostgreSQL.
type Amount struct {
	big.Int
}

// NewAmount builds an Amount from an int64, mostly useful in tests.
func NewAmount(v int64) Amount {
	var a Amount
	a.SetInt64(v)
	return a
}

// ParseAmount parses a base-10 amount string.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if s == "" {
		return a, nil
	}
	if _, ok := a.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("invalid amount %q", s)
	}
	return a, nil
}

// Clone returns an independent copy.
func (a Amount) Clone() Amount {
	var out Amount
	out.Set(&a.Int)
	return out
}

// Add returns a + b without mutating either operand.
func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.Int.Add(&a.Int, &b.Int)
	return out
}

// Sub returns a - b clamped at zero. Aggregates never go negative; a clamp
// here is the underflow guard applied on every decrement.
func (a Amount) Sub(b Amount) Amount {
	var out Amount
	out.Int.Sub(&a.Int, &b.Int)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

// Value implements driver.Valuer, storing the amount as its decimal string.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for TEXT/NUMERIC columns.
func (a *Amount) Scan(src interface{}) error {
	if src == nil {
		a.SetInt64(0)
		return nil
	}
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case int64:
		a.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
	if raw == "" {
		a.SetInt64(0)
		return nil
	}
	if _, ok := a.SetString(raw, 10); !ok {
		return fmt.Errorf("cannot scan %q into Amount", raw)
	}
	return nil
}

// MarshalJSON renders the amount as a JSON string to avoid precision loss in
// javascript consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both string and bare-number encodings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		a.SetInt64(0)
		return nil
	}
	if _, ok := a.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	return nil
}
