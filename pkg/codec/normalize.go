package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Normalize converts v into its canonical member of the value set.
// Nil map entries are dropped, nil array elements are rejected.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, bson.ObjectID:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return fromUint(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return fromUint(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		return parseNumber(x.String())
	case time.Time:
		return x.UTC(), nil
	case map[string]any:
		return normalizeMap(x)
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	case []any:
		return normalizeSlice(x)
	case []string:
		return toSlice(x), nil
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out, nil
	case []int64:
		return toSlice(x), nil
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			n, err := fromFloat(f)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case []bool:
		return toSlice(x), nil
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			n, err := normalizeMap(m)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValueType, v)
	}
}

func normalizeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if n == nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}

func normalizeSlice(s []any) ([]any, error) {
	out := make([]any, len(s))
	for i, v := range s {
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		if n == nil {
			return nil, fmt.Errorf("%w: nil array element at %d", ErrUnsupportedValueType, i)
		}
		out[i] = n
	}
	return out, nil
}

func toSlice[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func fromUint(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: uint64 %d overflows int64", ErrUnsupportedValueType, u)
	}
	return int64(u), nil
}

func fromFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: non-finite number", ErrUnsupportedValueType)
	}
	return f, nil
}

// parseNumber keeps integer literals as int64 and everything else as float64.
func parseNumber(s string) (any, error) {
	if !strings.ContainsAny(s, ".eE") {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid number %q", ErrMalformedEncodedValue, s)
	}
	return fromFloat(f)
}

// formatFloat always emits a fraction or exponent so the value decodes as float64.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
