package index_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/catalog"
	"stellarsql/index"
	"stellarsql/storage"
)

func setupAffiliates(t *testing.T) *storage.DiskStore {
	t.Helper()
	ds := storage.New(filepath.Join(t.TempDir(), "base"), false)
	require.NoError(t, ds.CreateFileBase())
	require.NoError(t, ds.CreateUsername("alice"))
	require.NoError(t, ds.CreateDB("alice", "shop"))

	tbl := catalog.NewTable("affiliates")
	tbl.PrimaryKey = []string{"AffID"}
	tbl.AddField(catalog.NewField("AffID", catalog.DataType{Kind: catalog.KindInt}, true, nil, false))
	tbl.AddField(catalog.NewField("AffEmail", catalog.DataType{Kind: catalog.KindVarchar, Length: 20}, true, nil, false))
	require.NoError(t, ds.CreateTable("alice", "shop", tbl))

	meta, err := ds.LoadTableMeta("alice", "shop", "affiliates")
	require.NoError(t, err)

	rows := []catalog.Row{}
	for _, id := range []string{"3", "1", "2"} {
		r := catalog.NewRow()
		r.Values["AffID"] = id
		r.Values["AffEmail"] = "a@b.com"
		rows = append(rows, r)
	}
	require.NoError(t, ds.AppendRows("alice", "shop", "affiliates", meta, rows))
	require.NoError(t, ds.DeleteRows("alice", "shop", "affiliates", meta, 1, 2)) // tombstone AffID=1

	return ds
}

func TestBuildFromBinSkipsTombstonesAndSorts(t *testing.T) {
	ds := setupAffiliates(t)
	idx, err := index.BuildFromBin(ds, "alice", "shop", "affiliates", "AffID")
	require.NoError(t, err)

	require.Equal(t, uint32(3), idx.NumRows)
	require.Len(t, idx.Entries, 2)
	assert.Equal(t, uint32(2), idx.Entries[0].RowIndex) // AffID=2
	assert.Equal(t, uint32(0), idx.Entries[1].RowIndex) // AffID=3
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ds := setupAffiliates(t)
	idx, err := index.BuildFromBin(ds, "alice", "shop", "affiliates", "AffID")
	require.NoError(t, err)
	require.NoError(t, idx.Save(ds, "alice", "shop"))

	loaded, err := index.Load(ds, "alice", "shop", "affiliates", "AffID", 4)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, loaded.Entries)
}

func TestInsertKeepsSortedOrder(t *testing.T) {
	ds := setupAffiliates(t)
	idx, err := index.BuildFromBin(ds, "alice", "shop", "affiliates", "AffID")
	require.NoError(t, err)

	idx.Insert(5, []byte{0, 0, 0, 0}) // smallest possible big-endian key
	assert.Equal(t, uint32(5), idx.Entries[0].RowIndex)
	assert.Equal(t, uint32(4), idx.NumRows)
}

func TestCapacityFormula(t *testing.T) {
	assert.Equal(t, uint32(31), index.Capacity(4096, index.HeaderSize+108))
	assert.Equal(t, uint32(0), index.Capacity(10, 128))
}
