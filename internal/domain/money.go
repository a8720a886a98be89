package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the maximum absolute difference between two monetary values
// that is still treated as agreement. Upstream systems record amounts with
// two decimal places, so anything under a cent is rounding noise.
var Tolerance = decimal.New(1, -2) // 0.01

// ParseAmount converts a raw monetary string into a decimal amount.
// Absent or non-numeric input yields zero. This is the single place where
// the "treat malformed money as zero" policy lives; callers must not
// re-implement it with ad hoc parsing.
func ParseAmount(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FlexAmount decodes a monetary field that upstream payloads carry as
// either a JSON number or a quoted string. Malformed values decode to
// zero through ParseAmount rather than failing the whole payload.
type FlexAmount struct {
	decimal.Decimal
}

func (a *FlexAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	s = strings.Trim(s, `"`)
	a.Decimal = ParseAmount(s)
	return nil
}

func (a FlexAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Decimal)
}

// RoundCents rounds an amount to two decimal places for display and
// persistence. Internal comparisons always use the unrounded value.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
