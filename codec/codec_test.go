package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
	"stellarsql/codec"
	"stellarsql/internal/xerr"
)

func TestAttrRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		dtype catalog.DataType
		value string
	}{
		{"char", catalog.DataType{Kind: catalog.KindChar, Length: 10}, "test"},
		{"double", catalog.DataType{Kind: catalog.KindDouble}, "3.1415926"},
		{"float", catalog.DataType{Kind: catalog.KindFloat}, "2.71"},
		{"int", catalog.DataType{Kind: catalog.KindInt}, "123456543"},
		{"varchar", catalog.DataType{Kind: catalog.KindVarchar, Length: 100}, "abcXYZ019!@#"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := codec.AttrToBytes(tc.dtype, tc.value)
			require.NoError(t, err)
			got, err := codec.BytesToAttr(tc.dtype, b)
			require.NoError(t, err)
			assert.Equal(t, tc.value, got)
		})
	}
}

func TestAttrToBytesStringLength(t *testing.T) {
	dtype := catalog.DataType{Kind: catalog.KindChar, Length: 3}
	_, err := codec.AttrToBytes(dtype, "toolong")
	require.Error(t, err)
	assert.True(t, xerr.Is(err, xerr.Codec))
	assert.Equal(t, "StringLength", xerr.CodeOf(err))
}

func TestAttrToBytesParseInt(t *testing.T) {
	dtype := catalog.DataType{Kind: catalog.KindInt}
	_, err := codec.AttrToBytes(dtype, "not-a-number")
	require.Error(t, err)
	assert.Equal(t, "ParseInt", xerr.CodeOf(err))
}

func TestRowRoundTrip(t *testing.T) {
	fields := map[string]catalog.Field{
		"AffID":       catalog.NewField("AffID", catalog.DataType{Kind: catalog.KindInt}, true, nil, false),
		"AffEmail":    catalog.NewField("AffEmail", catalog.DataType{Kind: catalog.KindVarchar, Length: 50}, true, nil, false),
		"AffName":     catalog.NewField("AffName", catalog.DataType{Kind: catalog.KindVarchar, Length: 40}, true, nil, false),
		"AffPhoneNum": catalog.NewField("AffPhoneNum", catalog.DataType{Kind: catalog.KindVarchar, Length: 20}, false, nil, false),
	}
	attrsOrder := []string{"__valid__", "AffID", "AffEmail", "AffName", "AffPhoneNum"}
	attrOffsetRanges := [][2]uint32{{0, 1}, {1, 5}, {5, 55}, {55, 95}, {95, 115}}

	row := catalog.NewRow()
	row.Values["AffID"] = "2"
	row.Values["AffName"] = "Ben"
	row.Values["AffEmail"] = "ben@foo.com"
	row.Values["AffPhoneNum"] = "+886900000002"

	b, err := codec.RowToBytes(attrsOrder, fields, row)
	require.NoError(t, err)
	require.Equal(t, byte(1), b[0])
	require.Len(t, b, 115)

	got, err := codec.BytesToRow(attrsOrder, attrOffsetRanges, fields, b)
	require.NoError(t, err)
	for k, v := range row.Values {
		assert.Equal(t, v, got.Values[k])
	}
}

func TestRowToBytesMissingAttr(t *testing.T) {
	fields := map[string]catalog.Field{
		"a": catalog.NewField("a", catalog.DataType{Kind: catalog.KindInt}, true, nil, false),
	}
	attrsOrder := []string{"__valid__", "a"}
	row := catalog.NewRow()
	_, err := codec.RowToBytes(attrsOrder, fields, row)
	require.Error(t, err)
	assert.Equal(t, "AttrNotExists", xerr.CodeOf(err))
}
