package catalog

import "github.com/google/uuid"

// Field describes a single table column: its name, type, nullability,
// textual default, encryption flag, and a stable identity (spec.md §3).
// The uuid mirrors the original Rust implementation's
// `uuid::Uuid::new_v4()`-seeded Field identity.
type Field struct {
	Name    string   `json:"name"`
	Type    DataType `json:"datatype"`
	NotNull bool     `json:"not_null"`
	Default *string  `json:"default,omitempty"` // stored as source text, re-parsed on use
	Encrypt bool     `json:"encrypt"`
	UUID    string   `json:"uuid"`
}

// NewField creates a Field with a freshly generated stable uuid.
func NewField(name string, dtype DataType, notNull bool, def *string, encrypt bool) Field {
	return Field{
		Name:    name,
		Type:    dtype,
		NotNull: notNull,
		Default: def,
		Encrypt: encrypt,
		UUID:    uuid.NewString(),
	}
}
