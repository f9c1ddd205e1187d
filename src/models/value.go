package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Stringify renders a field or condition value the way rules compare it:
// numbers in their shortest decimal form, strings unchanged.
func Stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case decimal.Decimal:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ParseNumber converts a field or condition value into a decimal. Strings
// are parsed after trimming spaces; anything else that is not a number fails.
func ParseNumber(v interface{}) (decimal.Decimal, error) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), nil
	case float32:
		return decimal.NewFromFloat32(t), nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
