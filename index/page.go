// Package index implements IndexStore (spec.md §4.3): the flat
// primary-key index built from a table's row file, and the B+ tree page
// format it is designed to grow into. Grounded on
// original_source/src/storage/page.rs.
package index

import (
	"strconv"

	"stellarsql/catalog"
	"stellarsql/codec"
	"stellarsql/internal/xerr"
)

// HeaderSize is the number of bytes reserved for the header at the start of
// every page. Header.ToBytes fills only the first 12 of them (PID,
// Capacity, BlockLength as 4-byte ints); the rest are unused.
const HeaderSize = 20

// DefaultPageSize is used when no PAGE_SIZE configuration is supplied.
const DefaultPageSize = 4096

// NodeKind distinguishes internal (branch) pages from leaf pages.
type NodeKind uint8

const (
	NodeInternal NodeKind = iota
	NodeLeaf
)

// Header is the common leading structure of every index page.
type Header struct {
	PID         uint32
	Capacity    uint32
	BlockLength uint32
}

// Capacity computes how many fixed-width blocks of blockLength fit in one
// page after the header, for the given page size.
func Capacity(pageSize, blockLength uint32) uint32 {
	if blockLength == 0 || pageSize <= HeaderSize {
		return 0
	}
	return (pageSize - HeaderSize) / blockLength
}

// NewHeader builds a Header for a fresh page, deriving its capacity from
// pageSize and blockLength (original_source/src/storage/page.rs get_capacity).
func NewHeader(pid, pageSize, blockLength uint32) Header {
	return Header{PID: pid, Capacity: Capacity(pageSize, blockLength), BlockLength: blockLength}
}

var intType = catalog.DataType{Kind: catalog.KindInt}

// ToBytes serializes the header using the same fixed-width int codec as
// row storage (BytesCoder), so a page header is itself a 3-field row.
func (h Header) ToBytes() ([]byte, error) {
	out := make([]byte, 0, HeaderSize)
	for _, v := range []uint32{h.PID, h.Capacity, h.BlockLength} {
		b, err := codec.AttrToBytes(intType, strconv.FormatUint(uint64(v), 10))
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// HeaderFromBytes parses a page header from its first HeaderSize bytes.
func HeaderFromBytes(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, xerr.New(xerr.Storage, "Io", "short buffer for page header")
	}
	pid, err := codec.BytesToAttr(intType, b[0:4])
	if err != nil {
		return Header{}, err
	}
	cap_, err := codec.BytesToAttr(intType, b[4:8])
	if err != nil {
		return Header{}, err
	}
	blk, err := codec.BytesToAttr(intType, b[8:12])
	if err != nil {
		return Header{}, err
	}
	pidVal, _ := strconv.ParseUint(pid, 10, 32)
	capVal, _ := strconv.ParseUint(cap_, 10, 32)
	blkVal, _ := strconv.ParseUint(blk, 10, 32)
	return Header{PID: uint32(pidVal), Capacity: uint32(capVal), BlockLength: uint32(blkVal)}, nil
}

// InternalCapacity returns N_int, the number of keys an internal node page
// can hold: ptrSize*(N+1) + keySize*N fits in page_size - header_size.
func InternalCapacity(pageSize, ptrSize, keySize uint32) uint32 {
	avail := pageSize - HeaderSize
	denom := ptrSize + keySize
	if denom == 0 || avail < ptrSize {
		return 0
	}
	return (avail - ptrSize) / denom
}

// LeafCapacity returns N_leaf, the number of keys a leaf node page can
// hold: 2*ptrSize (sibling pointers) + N*(rowPtrSize+keySize).
func LeafCapacity(pageSize, ptrSize, rowPtrSize, keySize uint32) uint32 {
	avail := pageSize - HeaderSize
	denom := rowPtrSize + keySize
	if denom == 0 || avail < 2*ptrSize {
		return 0
	}
	return (avail - 2*ptrSize) / denom
}

// RowPointer locates a row within the paged data file: a page id plus a
// byte offset within that page's content area.
type RowPointer struct {
	PageID uint32
	Offset uint32
}

// FindPointer performs the internal-node upper-bound search described in
// spec.md §4.3: returns the index of the smallest key strictly greater
// than k (ties and smaller route left), i.e. the child pointer to follow.
func FindPointer(keys []int64, k int64) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid] > k {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
