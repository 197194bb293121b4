package schema

import (
	"github.com/lildb-project/lildb/internal/bx"
	"github.com/lildb-project/lildb/internal/lilderr"
)

// Encode serializes a schema to a compact binary form: column count (u16),
// then per column: name length (u16) + name bytes + type tag (u8) +
// optional flag (u8). Hand-rolled rather than gob/JSON so the result is
// compact enough to fit a header page's data region and stable across
// engine versions.
func (s Schema) Encode() ([]byte, error) {
	if len(s.Columns) > 0xFFFF {
		return nil, lilderr.New(lilderr.Action, "schema has too many columns: %d", len(s.Columns))
	}

	out := make([]byte, 2)
	bx.PutU16(out, uint16(len(s.Columns)))

	for _, c := range s.Columns {
		if len(c.Name) > 0xFFFF {
			return nil, lilderr.New(lilderr.Action, "column name %q too long", c.Name)
		}
		var nameLen [2]byte
		bx.PutU16(nameLen[:], uint16(len(c.Name)))
		out = append(out, nameLen[:]...)
		out = append(out, []byte(c.Name)...)

		optByte := byte(0)
		if c.Optional {
			optByte = 1
		}
		out = append(out, byte(c.Type), optByte)
	}
	return out, nil
}

// Decode is Encode's inverse.
func Decode(buf []byte) (Schema, error) {
	if len(buf) < 2 {
		return Schema{}, lilderr.New(lilderr.Internal, "schema buffer too short")
	}
	n := int(bx.U16(buf))
	i := 2

	cols := make([]Column, 0, n)
	for c := 0; c < n; c++ {
		if i+2 > len(buf) {
			return Schema{}, lilderr.New(lilderr.Internal, "schema buffer truncated at column %d", c)
		}
		nameLen := int(bx.U16(buf[i : i+2]))
		i += 2
		if i+nameLen+2 > len(buf) {
			return Schema{}, lilderr.New(lilderr.Internal, "schema buffer truncated in column %d", c)
		}
		name := string(buf[i : i+nameLen])
		i += nameLen
		typ := ColumnType(buf[i])
		optional := buf[i+1] != 0
		i += 2
		cols = append(cols, Column{Name: name, Type: typ, Optional: optional})
	}
	return Schema{Columns: cols}, nil
}
