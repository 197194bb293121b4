// Package schema describes a heap file's row shape and codes rows to and
// from the opaque byte tuples internal/heap stores.
package schema

import (
	"github.com/lildb-project/lildb/internal/lilderr"
)

// ColumnType names a column's on-disk representation.
type ColumnType uint8

const (
	Bool ColumnType = iota
	XShort
	UXShort
	Short
	UShort
	Int
	UInt
	Long
	ULong
	Float
	Double
	Text  // UTF-8, length-prefixed
	Bytes // opaque, length-prefixed
)

// Size returns the column type's fixed on-disk width in bytes, or 0 for
// the variable-width Text/Bytes types.
func (t ColumnType) Size() int {
	switch t {
	case Bool, XShort, UXShort:
		return 1
	case Short, UShort:
		return 2
	case Int, UInt, Float:
		return 4
	case Long, ULong, Double:
		return 8
	default:
		return 0
	}
}

func (t ColumnType) String() string {
	switch t {
	case Bool:
		return "bool"
	case XShort:
		return "x-short"
	case UXShort:
		return "unsigned x-short"
	case Short:
		return "short"
	case UShort:
		return "unsigned short"
	case Int:
		return "int"
	case UInt:
		return "unsigned int"
	case Long:
		return "long"
	case ULong:
		return "unsigned long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Text:
		return "text"
	case Bytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Column is one ordered field of a Schema.
type Column struct {
	Name     string
	Type     ColumnType
	Optional bool
}

// Schema is a table's column list, built incrementally and order-sensitive.
type Schema struct {
	Columns []Column
}

// New returns an empty schema.
func New() Schema {
	return Schema{}
}

// WithColumn appends a column, rejecting a name already present.
func (s Schema) WithColumn(name string, typ ColumnType, optional bool) (Schema, error) {
	for _, c := range s.Columns {
		if c.Name == name {
			return Schema{}, lilderr.New(lilderr.Action, "column with name %q already exists", name)
		}
	}
	s.Columns = append(append([]Column(nil), s.Columns...), Column{Name: name, Type: typ, Optional: optional})
	return s, nil
}
