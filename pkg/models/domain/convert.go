package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToFloat converts the numeric shapes produced by the JSON and YAML decoders into a float64.
// Strings are accepted when they hold a number.
func ToFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
