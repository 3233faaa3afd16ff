package catalog

import "stellarsql/internal/xerr"

// AttrValue is one (field name, source-text value) pair from an INSERT
// statement's column/value lists, in the order the statement gave them.
type AttrValue struct {
	Name  string
	Value string
}

func insertErr(code, msg string) error {
	return xerr.New(xerr.Insert, code, msg)
}

// InsertRow builds and appends one row from an ordered attribute/value
// list (spec.md §4.4 insert_row):
//  1. every given attribute must exist and, if not_null, must not be the
//     literal "null";
//  2. every declared field missing from pairs is filled from its default,
//     or rejected if it has none;
//  3. fields flagged Encrypt require a live PublicKey.
//
// encrypt is the hook contract from spec.md §4.4 step 3/§9 ("Encryption
// hook"): encrypt(publicKey, plaintext) -> ciphertext. Passing nil stores
// Encrypt fields as given, with no transform; the PublicKey check above
// still applies, so an Encrypt field on a table whose PublicKey is 0 is
// KeyNotExist either way.
func (t *Table) InsertRow(pairs []AttrValue, encrypt func(publicKey int32, plaintext string) string) error {
	row := NewRow()

	given := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		field, ok := t.Fields[p.Name]
		if !ok {
			return insertErr("FieldNotExisted", "field "+p.Name+" does not exist on table "+t.Name)
		}
		if field.NotNull && p.Value == "null" {
			return insertErr("NotNullMismatched", "field "+p.Name+" is not null but value was null")
		}
		row.Values[p.Name] = p.Value
		given[p.Name] = struct{}{}
	}

	for _, name := range t.FieldList {
		if _, ok := given[name]; ok {
			continue
		}
		field := t.Fields[name]
		if field.Default == nil {
			return insertErr("DefaultMismatched", "field "+name+" has no value and no default")
		}
		row.Values[name] = *field.Default
	}

	for _, name := range t.FieldList {
		field := t.Fields[name]
		if !field.Encrypt {
			continue
		}
		if t.PublicKey == 0 {
			return xerr.New(xerr.Insert, "KeyNotExist", "table "+t.Name+" has no public key for encrypted field "+name)
		}
		if encrypt != nil {
			row.Values[name] = encrypt(t.PublicKey, row.Values[name])
		}
	}

	row.IsDirty = true
	t.Rows = append(t.Rows, row)
	t.IsDirty = true
	return nil
}
