// Package catalog holds the in-memory schema and row model: DataType,
// Field, Table, Row, Database, and User, as specified in spec.md §3.
package catalog

import (
	"encoding/json"
	"fmt"
)

// DataType is a tagged variant over the five StellarSQL attribute types.
// Char and Varchar carry their declared byte length.
type DataType struct {
	Kind   DataTypeKind
	Length uint8 // only meaningful for Char/Varchar
}

// DataTypeKind distinguishes the DataType variants.
type DataTypeKind int

const (
	KindInt DataTypeKind = iota
	KindFloat
	KindDouble
	KindChar
	KindVarchar
)

func (k DataTypeKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindChar:
		return "char"
	case KindVarchar:
		return "varchar"
	default:
		return "unknown"
	}
}

// NewDataType constructs a DataType from a lowercase type keyword and an
// optional declared length (used only by char/varchar).
func NewDataType(keyword string, length uint8) (DataType, bool) {
	switch keyword {
	case "int":
		return DataType{Kind: KindInt}, true
	case "float":
		return DataType{Kind: KindFloat}, true
	case "double":
		return DataType{Kind: KindDouble}, true
	case "char":
		return DataType{Kind: KindChar, Length: length}, true
	case "varchar":
		return DataType{Kind: KindVarchar, Length: length}, true
	default:
		return DataType{}, false
	}
}

// ByteWidth returns the fixed on-disk width of a value of this type.
func (d DataType) ByteWidth() uint32 {
	switch d.Kind {
	case KindInt, KindFloat:
		return 4
	case KindDouble:
		return 8
	case KindChar, KindVarchar:
		return uint32(d.Length)
	default:
		return 0
	}
}

func (d DataType) String() string {
	switch d.Kind {
	case KindChar, KindVarchar:
		return fmt.Sprintf("%s(%d)", d.Kind, d.Length)
	default:
		return d.Kind.String()
	}
}

// jsonDataType is the on-disk shape of a DataType within tables.json.
type jsonDataType struct {
	Kind   string `json:"kind"`
	Length uint8  `json:"length,omitempty"`
}

func (d DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonDataType{Kind: d.Kind.String(), Length: d.Length})
}

func (d *DataType) UnmarshalJSON(b []byte) error {
	var j jsonDataType
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	dt, ok := NewDataType(j.Kind, j.Length)
	if !ok {
		return fmt.Errorf("catalog: unknown data type kind %q", j.Kind)
	}
	*d = dt
	return nil
}
