// Package codec implements BytesCoder (spec.md §4.1): fixed-width
// serialization of typed attribute values, and whole rows, to and from
// byte slices. Grounded on original_source/src/storage/bytescoder.rs.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"stellarsql/catalog"
	"stellarsql/internal/xerr"
)

// AttrToBytes encodes a single attribute value (given as source text)
// into its fixed-width on-disk representation.
func AttrToBytes(dtype catalog.DataType, text string) ([]byte, error) {
	switch dtype.Kind {
	case catalog.KindInt:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, xerr.Wrap(xerr.Codec, "ParseInt", err)
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(int32(v)))
		return buf, nil

	case catalog.KindFloat:
		v, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return nil, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return buf, nil

	case catalog.KindDouble:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, xerr.Wrap(xerr.Codec, "ParseFloat", err)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		return buf, nil

	case catalog.KindChar, catalog.KindVarchar:
		raw := []byte(text)
		n := int(dtype.Length)
		if len(raw) > n {
			return nil, xerr.New(xerr.Codec, "StringLength", "value exceeds declared field length")
		}
		buf := make([]byte, n)
		copy(buf, raw)
		return buf, nil

	default:
		return nil, xerr.New(xerr.Codec, "ParseInt", fmt.Sprintf("unknown data type %v", dtype))
	}
}

// BytesToAttr decodes a fixed-width attribute value back into its
// canonical source-text form.
func BytesToAttr(dtype catalog.DataType, b []byte) (string, error) {
	switch dtype.Kind {
	case catalog.KindInt:
		if len(b) < 4 {
			return "", xerr.New(xerr.Codec, "ParseInt", "short buffer for int")
		}
		v := int32(binary.BigEndian.Uint32(b))
		return strconv.FormatInt(int64(v), 10), nil

	case catalog.KindFloat:
		if len(b) < 4 {
			return "", xerr.New(xerr.Codec, "ParseFloat", "short buffer for float")
		}
		v := math.Float32frombits(binary.BigEndian.Uint32(b))
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil

	case catalog.KindDouble:
		if len(b) < 8 {
			return "", xerr.New(xerr.Codec, "ParseFloat", "short buffer for double")
		}
		v := math.Float64frombits(binary.BigEndian.Uint64(b))
		return strconv.FormatFloat(v, 'g', -1, 64), nil

	case catalog.KindChar, catalog.KindVarchar:
		trimmed := bytes.Trim(b, "\x00")
		if !utf8.Valid(trimmed) {
			return "", xerr.New(xerr.Codec, "StringDecode", "invalid utf-8 in stored value")
		}
		return string(trimmed), nil

	default:
		return "", xerr.New(xerr.Codec, "ParseInt", fmt.Sprintf("unknown data type %v", dtype))
	}
}

// RowToBytes emits the `__valid__` liveness byte (always 1 here — see
// storage.DiskStore.DeleteRows for tombstoning) followed by every
// attribute in attrsOrder[1:], encoded in order. A missing attribute is
// AttrNotExists.
func RowToBytes(attrsOrder []string, fields map[string]catalog.Field, row catalog.Row) ([]byte, error) {
	out := make([]byte, 0, 1)
	out = append(out, 1)
	for _, attr := range attrsOrder[1:] {
		val, ok := row.Values[attr]
		if !ok {
			return nil, xerr.New(xerr.Codec, "AttrNotExists", fmt.Sprintf("row missing attribute %q", attr))
		}
		field, ok := fields[attr]
		if !ok {
			return nil, xerr.New(xerr.Codec, "AttrNotExists", fmt.Sprintf("unknown attribute %q", attr))
		}
		b, err := AttrToBytes(field.Type, val)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// BytesToRow is the inverse of RowToBytes; the caller is responsible for
// checking byte 0 (`__valid__`) before calling this.
func BytesToRow(attrsOrder []string, attrOffsetRanges [][2]uint32, fields map[string]catalog.Field, b []byte) (catalog.Row, error) {
	row := catalog.NewRow()
	for i, attr := range attrsOrder[1:] {
		rng := attrOffsetRanges[i+1]
		field, ok := fields[attr]
		if !ok {
			return catalog.Row{}, xerr.New(xerr.Codec, "AttrNotExists", fmt.Sprintf("unknown attribute %q", attr))
		}
		val, err := BytesToAttr(field.Type, b[rng[0]:rng[1]])
		if err != nil {
			return catalog.Row{}, err
		}
		row.Values[attr] = val
	}
	return row, nil
}
