package sstable

// Magic identifies an AetherDB SST file; Version is the on-disk format
// revision.
const (
	Magic   uint32 = 0x53535401
	Version uint32 = 1

	// FooterSize is the fixed, big-endian-encoded trailer every SST file
	// ends with, deliberately distinct endianness from the
	// little-endian Document codec. Layout: min_id(16)@0 | max_id(16)@16 |
	// index_offset(8)@32 | index_size(8)@40 | entry_count(8)@48 |
	// magic(4)@56 | version(4)@60.
	FooterSize = 64

	// indexEntrySize is the on-disk size of one IndexEntry: 16-byte id +
	// 8-byte offset + 8-byte length.
	indexEntrySize = 16 + 8 + 8
)

// Footer is the fixed 64-byte trailer carrying the table's id range, where
// the index section starts and how large it is, the document count, and
// the format's magic/version tag.
type Footer struct {
	MinID       [16]byte
	MaxID       [16]byte
	IndexOffset uint64
	IndexSize   uint64
	EntryCount  uint64
	Magic       uint32
	Version     uint32
}

// IndexEntry locates one document within the data section.
type IndexEntry struct {
	ID     [16]byte
	Offset uint64
	Length uint64
}
