package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"
)

// Wei is an arbitrary-precision token amount in wei (smallest denomination).
// Stored as a decimal string column so amounts above int64 range (rewards can
// reach 1e19 wei) never pass through floating point.
type Wei struct {
	big.Int
}

// NewWei copies v into a Wei. Returns nil for a nil input.
func NewWei(v *big.Int) *Wei {
	if v == nil {
		return nil
	}
	w := &Wei{}
	w.Set(v)
	return w
}

// ParseWei parses a base-10 wei string.
func ParseWei(s string) (*Wei, error) {
	w := &Wei{}
	if _, ok := w.SetString(strings.TrimSpace(s), 10); !ok {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return w, nil
}

// BigInt returns a copy of the underlying value, zero for nil.
func (w *Wei) BigInt() *big.Int {
	if w == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&w.Int)
}

func (w Wei) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w *Wei) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		_, ok := w.SetString(v, 10)
		if !ok {
			return fmt.Errorf("cannot scan %q into Wei", v)
		}
		return nil
	case []byte:
		return w.Scan(string(v))
	case int64:
		w.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Wei", value)
	}
}

func (w Wei) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.String() + `"`), nil
}

func (w *Wei) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	_, ok := w.SetString(s, 10)
	if !ok {
		return fmt.Errorf("cannot unmarshal %s into Wei", data)
	}
	return nil
}
