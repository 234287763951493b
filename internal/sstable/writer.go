// Package sstable implements AetherDB's on-disk sorted-string-table
// format for frozen document sets: a data section of Documents in
// ascending id order, a sparse-free full index section, and a fixed
// big-endian footer.
package sstable

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/aetherdb/aetherdb/internal/diskmanager"
	"github.com/aetherdb/aetherdb/internal/document"
)

// WriteMemtable writes docs (already sorted ascending by id, e.g. from
// MemTable.SortedIter) to a new SST file at path, overwriting any
// existing file.
func WriteMemtable(path string, docs []document.Document) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("sstable: create %s: %w", path, err)
	}
	return WriteMemtableHandle(diskmanager.NewFileHandle(f), docs)
}

// WriteMemtableHandle writes docs through fh, closing it when done —
// used directly by tests to write into mockdm's in-memory handle.
func WriteMemtableHandle(fh diskmanager.FileHandle, docs []document.Document) error {
	f := fh
	defer f.Close()

	index := make([]IndexEntry, 0, len(docs))
	var offset uint64
	var minID, maxID [16]byte
	for i, doc := range docs {
		n, err := writeDocumentAt(f, offset, doc)
		if err != nil {
			return fmt.Errorf("sstable: write document: %w", err)
		}
		index = append(index, IndexEntry{ID: doc.ID, Offset: offset, Length: n})
		offset += n
		if i == 0 {
			minID = doc.ID
		}
		maxID = doc.ID
	}

	indexOffset := offset
	for _, e := range index {
		n, err := writeIndexEntryAt(f, offset, e)
		if err != nil {
			return fmt.Errorf("sstable: write index entry: %w", err)
		}
		offset += n
	}
	indexSize := offset - indexOffset

	footer := Footer{
		MinID:       minID,
		MaxID:       maxID,
		IndexOffset: indexOffset,
		IndexSize:   indexSize,
		EntryCount:  uint64(len(docs)),
		Magic:       Magic,
		Version:     Version,
	}
	if _, err := f.WriteAt(encodeFooter(footer), int64(offset)); err != nil {
		return fmt.Errorf("sstable: write footer: %w", err)
	}

	return f.Sync()
}

// writeDocumentAt encodes doc with the Document codec at offset, with no
// extra framing (the record's length is kept in its IndexEntry), returning
// the number of bytes written.
func writeDocumentAt(f diskmanager.FileHandle, offset uint64, doc document.Document) (uint64, error) {
	buf := make([]byte, 0, doc.EncodedLen())
	w := &byteSliceWriter{buf: buf}
	if err := doc.Encode(w); err != nil {
		return 0, err
	}
	if _, err := f.WriteAt(w.buf, int64(offset)); err != nil {
		return 0, err
	}
	return uint64(len(w.buf)), nil
}

func writeIndexEntryAt(f diskmanager.FileHandle, offset uint64, e IndexEntry) (uint64, error) {
	buf := make([]byte, indexEntrySize)
	copy(buf[0:16], e.ID[:])
	binary.BigEndian.PutUint64(buf[16:24], e.Offset)
	binary.BigEndian.PutUint64(buf[24:32], e.Length)
	if _, err := f.WriteAt(buf, int64(offset)); err != nil {
		return 0, err
	}
	return indexEntrySize, nil
}

func encodeFooter(ft Footer) []byte {
	buf := make([]byte, FooterSize)
	copy(buf[0:16], ft.MinID[:])
	copy(buf[16:32], ft.MaxID[:])
	binary.BigEndian.PutUint64(buf[32:40], ft.IndexOffset)
	binary.BigEndian.PutUint64(buf[40:48], ft.IndexSize)
	binary.BigEndian.PutUint64(buf[48:56], ft.EntryCount)
	binary.BigEndian.PutUint32(buf[56:60], ft.Magic)
	binary.BigEndian.PutUint32(buf[60:64], ft.Version)
	return buf
}

func decodeFooter(buf []byte) (Footer, error) {
	if len(buf) != FooterSize {
		return Footer{}, fmt.Errorf("sstable: footer must be %d bytes, got %d", FooterSize, len(buf))
	}
	var ft Footer
	copy(ft.MinID[:], buf[0:16])
	copy(ft.MaxID[:], buf[16:32])
	ft.IndexOffset = binary.BigEndian.Uint64(buf[32:40])
	ft.IndexSize = binary.BigEndian.Uint64(buf[40:48])
	ft.EntryCount = binary.BigEndian.Uint64(buf[48:56])
	ft.Magic = binary.BigEndian.Uint32(buf[56:60])
	ft.Version = binary.BigEndian.Uint32(buf[60:64])
	return ft, nil
}

// byteSliceWriter is an io.Writer over a growable in-memory buffer, used
// so Document.Encode's writes can be measured and written in one WriteAt.
type byteSliceWriter struct {
	buf []byte
}

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
