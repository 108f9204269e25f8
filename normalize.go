package protect

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// marshalPlaintext canonicalizes a column's plaintext value into the byte
// encoding the crypto engine operates on. The encoding is chosen per
// DataType so that, for DataTypeNumber/DataTypeDate, the byte
// representation is also what the order index's fixed-width comparable
// encoding is built from.
func marshalPlaintext(value any, dt DataType) ([]byte, error) {
	switch dt {
	case DataTypeString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("protect: expected string, got %T", value)
		}
		return []byte(s), nil

	case DataTypeNumber:
		f, err := toFloat64(value)
		if err != nil {
			return nil, err
		}
		return encodeOrderedFloat64(f), nil

	case DataTypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("protect: expected bool, got %T", value)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case DataTypeDate:
		t, ok := value.(time.Time)
		if !ok {
			return nil, fmt.Errorf("protect: expected time.Time, got %T", value)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
		return buf, nil

	case DataTypeBigInt:
		switch n := value.(type) {
		case int64:
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, uint64(n))
			return buf, nil
		case []byte:
			return n, nil
		default:
			return nil, fmt.Errorf("protect: expected int64 or []byte, got %T", value)
		}

	case DataTypeJSON, DataTypeJSONB:
		return json.Marshal(value)
	}
	return nil, errors.New("protect: unknown data type")
}

// unmarshalPlaintext is the inverse of marshalPlaintext.
func unmarshalPlaintext(data []byte, dt DataType) (any, error) {
	switch dt {
	case DataTypeString:
		return string(data), nil
	case DataTypeNumber:
		return decodeOrderedFloat64(data)
	case DataTypeBoolean:
		if len(data) != 1 {
			return nil, ErrInvalidFormat
		}
		return data[0] == 1, nil
	case DataTypeDate:
		if len(data) != 8 {
			return nil, ErrInvalidFormat
		}
		return time.Unix(0, int64(binary.BigEndian.Uint64(data))).UTC(), nil
	case DataTypeBigInt:
		return data, nil
	case DataTypeJSON, DataTypeJSONB:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errors.New("protect: unknown data type")
}

func toFloat64(value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("protect: expected numeric value, got %T", value)
	}
}

// encodeOrderedFloat64 encodes a float64 into 8 bytes such that unsigned
// big-endian byte comparison of the result matches the natural ordering of
// the floats, including across sign. This is the fixed-width comparable
// form the order index is built from.
func encodeOrderedFloat64(f float64) []byte {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits // negative: flip all bits
	} else {
		bits |= 1 << 63 // positive: flip sign bit
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	return buf
}

// decodeOrderedFloat64 is the inverse of encodeOrderedFloat64.
func decodeOrderedFloat64(buf []byte) (float64, error) {
	if len(buf) != 8 {
		return 0, ErrInvalidFormat
	}
	bits := binary.BigEndian.Uint64(buf)
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits), nil
}
