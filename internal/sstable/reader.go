package sstable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/aetherdb/aetherdb/internal/diskmanager"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/errs"
)

// Reader gives random-access reads over one SST file: the full index is
// loaded into memory at Open, so Get is one binary search plus one
// ReadAt — no scanning of the data section, and a miss costs no disk
// reads beyond the index and footer already held in memory. The
// underlying file is held behind diskmanager.FileHandle so tests can
// substitute mockdm's in-memory handle instead of real files.
type Reader struct {
	file   diskmanager.FileHandle
	path   string
	footer Footer
	index  []IndexEntry
}

// Open opens path on disk and loads its footer and index into memory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sstable: open %s: %w", path, err)
	}
	return OpenHandle(path, diskmanager.NewFileHandle(f))
}

// OpenHandle loads the footer and index from an already-open FileHandle,
// e.g. mockdm's in-memory handle in tests.
func OpenHandle(path string, fh diskmanager.FileHandle) (*Reader, error) {
	r := &Reader{file: fh, path: path}
	if err := r.loadIndex(); err != nil {
		fh.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) loadIndex() error {
	stat, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("sstable: stat %s: %w", r.path, err)
	}
	if stat.Size() < FooterSize {
		return errs.New(errs.KindInvalidMagic, fmt.Sprintf("sstable: %s is too small to be valid", r.path))
	}

	footerBuf := make([]byte, FooterSize)
	if _, err := r.file.ReadAt(footerBuf, stat.Size()-FooterSize); err != nil {
		return fmt.Errorf("sstable: read footer: %w", err)
	}
	footer, err := decodeFooter(footerBuf)
	if err != nil {
		return err
	}
	if footer.Magic != Magic {
		return errs.New(errs.KindInvalidMagic, fmt.Sprintf("sstable: %s has bad magic %#x", r.path, footer.Magic))
	}
	if footer.Version != Version {
		return errs.New(errs.KindDeserialize, fmt.Sprintf("sstable: %s has unsupported version %d", r.path, footer.Version))
	}
	r.footer = footer

	indexBuf := make([]byte, footer.IndexSize)
	if _, err := io.ReadFull(io.NewSectionReader(r.file, int64(footer.IndexOffset), int64(footer.IndexSize)), indexBuf); err != nil {
		return fmt.Errorf("sstable: read index: %w", err)
	}

	n := int(footer.IndexSize) / indexEntrySize
	index := make([]IndexEntry, 0, n)
	for i := 0; i < n; i++ {
		b := indexBuf[i*indexEntrySize : (i+1)*indexEntrySize]
		var e IndexEntry
		copy(e.ID[:], b[0:16])
		e.Offset = binary.BigEndian.Uint64(b[16:24])
		e.Length = binary.BigEndian.Uint64(b[24:32])
		index = append(index, e)
	}
	r.index = index
	return nil
}

// Get returns the document for id if present in this table. An id outside
// the footer's recorded [min_id, max_id] range is rejected before the
// index or data section is consulted at all.
func (r *Reader) Get(id docid.ID) (document.Document, bool, error) {
	if bytes.Compare(id[:], r.footer.MinID[:]) < 0 || bytes.Compare(id[:], r.footer.MaxID[:]) > 0 {
		return document.Document{}, false, nil
	}

	i := sort.Search(len(r.index), func(i int) bool {
		return bytes.Compare(r.index[i].ID[:], id[:]) >= 0
	})
	if i >= len(r.index) || r.index[i].ID != [16]byte(id) {
		return document.Document{}, false, nil
	}

	entry := r.index[i]
	buf := make([]byte, entry.Length)
	if _, err := io.ReadFull(io.NewSectionReader(r.file, int64(entry.Offset), int64(entry.Length)), buf); err != nil {
		return document.Document{}, false, fmt.Errorf("sstable: read document at %d: %w", entry.Offset, err)
	}
	doc, err := document.Decode(bytes.NewReader(buf))
	if err != nil {
		return document.Document{}, false, errs.Wrap(errs.KindDeserialize, "sstable: corrupt document record", err)
	}
	return doc, true, nil
}

// IDRange reports the minimum and maximum document id present, used by
// the catalog to bound overlap checks.
func (r *Reader) IDRange() (min, max docid.ID, ok bool) {
	if len(r.index) == 0 {
		return docid.ID{}, docid.ID{}, false
	}
	return docid.ID(r.index[0].ID), docid.ID(r.index[len(r.index)-1].ID), true
}

// Count reports the number of documents in the table.
func (r *Reader) Count() int { return len(r.index) }

// All returns every document in ascending id order, used by compaction
// to merge tables.
func (r *Reader) All() ([]document.Document, error) {
	out := make([]document.Document, 0, len(r.index))
	for _, e := range r.index {
		buf := make([]byte, e.Length)
		if _, err := io.ReadFull(io.NewSectionReader(r.file, int64(e.Offset), int64(e.Length)), buf); err != nil {
			return nil, fmt.Errorf("sstable: read document at %d: %w", e.Offset, err)
		}
		doc, err := document.Decode(bytes.NewReader(buf))
		if err != nil {
			return nil, errs.Wrap(errs.KindDeserialize, "sstable: corrupt document record", err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// Path returns the file path backing this reader.
func (r *Reader) Path() string { return r.path }

// Close closes the underlying file.
func (r *Reader) Close() error { return r.file.Close() }
