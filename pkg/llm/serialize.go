// Tool result serialization
package llm

import (
	"encoding/json"
	"math/big"
)

// MarshalToolResult encodes a tool handler result as a JSON string. Warehouse
// drivers return NUMBER columns as arbitrary-precision values that
// encoding/json cannot encode, so big.Float, big.Rat and json.Number values
// are converted to float64 before marshaling. Results that still cannot be
// encoded produce a serialization Error.
func MarshalToolResult(result any) (string, error) {
	bytes, err := json.Marshal(normalizeNumbers(result))
	if err != nil {
		return "", &Error{
			Code:    "unencodable_result",
			Message: "failed to encode tool result: " + err.Error(),
			Type:    ErrorTypeSerialization,
		}
	}
	return string(bytes), nil
}

// normalizeNumbers walks a decoded value and converts arbitrary-precision
// numeric types to float64. Maps and slices are rewritten in place.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case *big.Float:
		f, _ := val.Float64()
		return f
	case *big.Rat:
		f, _ := val.Float64()
		return f
	case big.Float:
		f, _ := val.Float64()
		return f
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	case []map[string]any:
		for _, row := range val {
			normalizeNumbers(row)
		}
		return val
	default:
		return v
	}
}
