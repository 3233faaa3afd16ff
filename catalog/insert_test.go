package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
	"stellarsql/internal/xerr"
)

func widgets() *catalog.Table {
	t := catalog.NewTable("widgets")
	t.PrimaryKey = []string{"a1"}
	t.AddField(catalog.NewField("a1", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	def := "'n/a'"
	t.AddField(catalog.NewField("a2", catalog.DataType{Kind: catalog.KindVarchar, Length: 10}, false, &def, false))
	return t
}

// TestInsertRowHappyPath mirrors spec.md §8 scenario A: every column
// given explicitly, nothing defaulted, nothing null.
func TestInsertRowHappyPath(t *testing.T) {
	tbl := widgets()
	err := tbl.InsertRow([]catalog.AttrValue{
		{Name: "a1", Value: "1"},
		{Name: "a2", Value: "'x'"},
	}, nil)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "1", tbl.Rows[0].Values["a1"])
	assert.Equal(t, "'x'", tbl.Rows[0].Values["a2"])
	assert.True(t, tbl.Rows[0].IsDirty)
	assert.True(t, tbl.IsDirty)
}

// TestInsertRowSubstitutesDefault mirrors spec.md §8 scenario D: a2
// omitted entirely, field has a DEFAULT, so the row gets the default
// literal rather than an error.
func TestInsertRowSubstitutesDefault(t *testing.T) {
	tbl := widgets()
	err := tbl.InsertRow([]catalog.AttrValue{
		{Name: "a1", Value: "1"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "'n/a'", tbl.Rows[0].Values["a2"])
}

// TestInsertRowRejectsNotNullNull mirrors spec.md §8 scenario C: a
// NOT NULL field given the null literal is rejected before any row is
// appended.
func TestInsertRowRejectsNotNullNull(t *testing.T) {
	tbl := widgets()
	err := tbl.InsertRow([]catalog.AttrValue{
		{Name: "a1", Value: "null"},
		{Name: "a2", Value: "'x'"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, "NotNullMismatched", xerr.CodeOf(err))
	assert.True(t, xerr.Is(err, xerr.Insert))
	assert.Empty(t, tbl.Rows)
}

func TestInsertRowRejectsUnknownField(t *testing.T) {
	tbl := widgets()
	err := tbl.InsertRow([]catalog.AttrValue{{Name: "nope", Value: "1"}}, nil)
	require.Error(t, err)
	assert.Equal(t, "FieldNotExisted", xerr.CodeOf(err))
}

// TestInsertRowRejectsMissingValueWithoutDefault covers a field with no
// default and no NOT NULL, left unset: it cannot silently become empty.
func TestInsertRowRejectsMissingValueWithoutDefault(t *testing.T) {
	tbl := catalog.NewTable("nodefault")
	tbl.PrimaryKey = []string{"a1"}
	tbl.AddField(catalog.NewField("a1", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	tbl.AddField(catalog.NewField("a2", catalog.DataType{Kind: catalog.KindInt}, false, nil, false))

	err := tbl.InsertRow([]catalog.AttrValue{{Name: "a1", Value: "1"}}, nil)
	require.Error(t, err)
	assert.Equal(t, "DefaultMismatched", xerr.CodeOf(err))
}

// TestInsertRowEncryptsWithPublicKey exercises the Encrypt hook path,
// grounded on spec.md §4.4/§9's encrypt(public_key, plaintext) contract.
func TestInsertRowEncryptsWithPublicKey(t *testing.T) {
	tbl := catalog.NewTable("secrets")
	tbl.PrimaryKey = []string{"a1"}
	tbl.PublicKey = 7
	tbl.AddField(catalog.NewField("a1", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	tbl.AddField(catalog.NewField("ssn", catalog.DataType{Kind: catalog.KindVarchar, Length: 20}, false, nil, true))

	encrypt := func(publicKey int32, plaintext string) string {
		assert.EqualValues(t, 7, publicKey)
		return "ENC(" + plaintext + ")"
	}
	err := tbl.InsertRow([]catalog.AttrValue{
		{Name: "a1", Value: "1"},
		{Name: "ssn", Value: "'123'"},
	}, encrypt)
	require.NoError(t, err)
	assert.Equal(t, "ENC('123')", tbl.Rows[0].Values["ssn"])
}

// TestInsertRowRejectsEncryptedFieldWithoutPublicKey covers KeyNotExist:
// an ENCRYPT field on a table that never acquired a public key.
func TestInsertRowRejectsEncryptedFieldWithoutPublicKey(t *testing.T) {
	tbl := catalog.NewTable("secrets")
	tbl.PrimaryKey = []string{"a1"}
	tbl.AddField(catalog.NewField("a1", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	tbl.AddField(catalog.NewField("ssn", catalog.DataType{Kind: catalog.KindVarchar, Length: 20}, false, nil, true))

	err := tbl.InsertRow([]catalog.AttrValue{
		{Name: "a1", Value: "1"},
		{Name: "ssn", Value: "'123'"},
	}, nil)
	require.Error(t, err)
	assert.Equal(t, "KeyNotExist", xerr.CodeOf(err))
}
