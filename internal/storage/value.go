package storage

import "math"

// keyOf accepts only a Go string. Empty keys are rejected as well.
func keyOf(op string, v any) (string, error) {
	k, ok := v.(string)
	if !ok || k == "" {
		return "", invalidKey(op, v)
	}
	return k, nil
}

// putArgs checks the key first, then the value.
func putArgs(key, value any) (string, int64, error) {
	k, err := keyOf("put", key)
	if err != nil {
		return "", 0, err
	}
	v, err := intOf("put", value)
	if err != nil {
		return "", 0, err
	}
	return k, v, nil
}

// intOf accepts Go integer kinds that fit in int64. bool, floats and numeric
// strings are rejected; nothing is coerced.
func intOf(op string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, invalidValue(op, v)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, invalidValue(op, v)
		}
		return int64(n), nil
	default:
		return 0, invalidValue(op, v)
	}
}
