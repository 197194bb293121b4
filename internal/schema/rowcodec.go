package schema

import (
	"github.com/lildb-project/lildb/internal/bx"
	"github.com/lildb-project/lildb/internal/lilderr"
)

// EncodeRow serializes values (one per schema column, in order) into the
// opaque tuple bytes a heap file stores. Layout: a leading null bitmap
// (ceil(N/8) bytes, bit=1 means NULL), then each non-null field's bytes in
// column order. Text and Bytes fields are length-prefixed (u32 LE length,
// then raw bytes) since they are variable width; every other type is a
// fixed-width little-endian encoding.
func EncodeRow(s Schema, values []any) ([]byte, error) {
	nc := len(s.Columns)
	if len(values) != nc {
		return nil, lilderr.New(lilderr.Validation, "row has %d values, schema has %d columns", len(values), nc)
	}

	nullBytes := (nc + 7) / 8
	out := make([]byte, nullBytes)

	for i, col := range s.Columns {
		v := values[i]
		if v == nil {
			if !col.Optional {
				return nil, lilderr.New(lilderr.Validation, "column %q is not optional but value is nil", col.Name)
			}
			out[i/8] |= 1 << uint(i%8)
			continue
		}

		switch col.Type {
		case Bool:
			x, ok := v.(bool)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects bool", col.Name)
			}
			if x {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}

		case XShort:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [1]byte
			bx.PutI8(b[:], int8(x))
			out = append(out, b[:]...)

		case UXShort:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			out = append(out, byte(x))

		case Short:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [2]byte
			bx.PutI16(b[:], int16(x))
			out = append(out, b[:]...)

		case UShort:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [2]byte
			bx.PutU16(b[:], uint16(x))
			out = append(out, b[:]...)

		case Int:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [4]byte
			bx.PutI32(b[:], int32(x))
			out = append(out, b[:]...)

		case UInt:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [4]byte
			bx.PutU32(b[:], uint32(x))
			out = append(out, b[:]...)

		case Long:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [8]byte
			bx.PutI64(b[:], x)
			out = append(out, b[:]...)

		case ULong:
			x, ok := asInt64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects an integer", col.Name)
			}
			var b [8]byte
			bx.PutU64(b[:], uint64(x))
			out = append(out, b[:]...)

		case Float:
			x, ok := asFloat64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects a float", col.Name)
			}
			var b [4]byte
			bx.PutF32(b[:], float32(x))
			out = append(out, b[:]...)

		case Double:
			x, ok := asFloat64(v)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects a float", col.Name)
			}
			var b [8]byte
			bx.PutF64(b[:], x)
			out = append(out, b[:]...)

		case Text:
			str, ok := v.(string)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects text", col.Name)
			}
			out = appendLengthPrefixed(out, []byte(str))

		case Bytes:
			bs, ok := v.([]byte)
			if !ok {
				return nil, lilderr.New(lilderr.Validation, "column %q expects bytes", col.Name)
			}
			out = appendLengthPrefixed(out, bs)

		default:
			return nil, lilderr.New(lilderr.Internal, "unsupported column type %d", col.Type)
		}
	}
	return out, nil
}

func appendLengthPrefixed(out, data []byte) []byte {
	var l [4]byte
	bx.PutU32(l[:], uint32(len(data)))
	out = append(out, l[:]...)
	return append(out, data...)
}

// DecodeRow is EncodeRow's inverse.
func DecodeRow(s Schema, buf []byte) ([]any, error) {
	nc := len(s.Columns)
	nullBytes := (nc + 7) / 8
	if len(buf) < nullBytes {
		return nil, lilderr.New(lilderr.Internal, "row buffer shorter than null bitmap")
	}
	nullmap := buf[:nullBytes]
	i := nullBytes

	out := make([]any, nc)
	for colIdx, col := range s.Columns {
		isNull := (nullmap[colIdx/8]>>(uint(colIdx)%8))&1 == 1
		if isNull {
			out[colIdx] = nil
			continue
		}

		switch col.Type {
		case Bool:
			if i+1 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = buf[i] != 0
			i++

		case XShort:
			if i+1 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.I8(buf[i : i+1])
			i++

		case UXShort:
			if i+1 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = buf[i]
			i++

		case Short:
			if i+2 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.I16(buf[i : i+2])
			i += 2

		case UShort:
			if i+2 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.U16(buf[i : i+2])
			i += 2

		case Int:
			if i+4 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.I32(buf[i : i+4])
			i += 4

		case UInt:
			if i+4 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.U32(buf[i : i+4])
			i += 4

		case Long:
			if i+8 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.I64(buf[i : i+8])
			i += 8

		case ULong:
			if i+8 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.U64(buf[i : i+8])
			i += 8

		case Float:
			if i+4 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.F32(buf[i : i+4])
			i += 4

		case Double:
			if i+8 > len(buf) {
				return nil, lilderr.New(lilderr.Internal, "row buffer truncated at column %q", col.Name)
			}
			out[colIdx] = bx.F64(buf[i : i+8])
			i += 8

		case Text:
			data, next, err := readLengthPrefixed(buf, i)
			if err != nil {
				return nil, err
			}
			out[colIdx] = string(data)
			i = next

		case Bytes:
			data, next, err := readLengthPrefixed(buf, i)
			if err != nil {
				return nil, err
			}
			cp := make([]byte, len(data))
			copy(cp, data)
			out[colIdx] = cp
			i = next

		default:
			return nil, lilderr.New(lilderr.Internal, "unsupported column type %d", col.Type)
		}
	}
	return out, nil
}

func readLengthPrefixed(buf []byte, i int) ([]byte, int, error) {
	if i+4 > len(buf) {
		return nil, 0, lilderr.New(lilderr.Internal, "row buffer truncated reading length prefix")
	}
	l := int(bx.U32(buf[i : i+4]))
	i += 4
	if i+l > len(buf) {
		return nil, 0, lilderr.New(lilderr.Internal, "row buffer truncated reading %d bytes", l)
	}
	return buf[i : i+l], i + l, nil
}


func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case uint64:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint8:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}
