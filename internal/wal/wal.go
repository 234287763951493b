// Package wal implements per-collection write-ahead logging for AetherDB.
// Every Write flushes and fsyncs before returning: the stronger durability
// grade, with no weaker configurable mode.
package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/aetherdb/aetherdb/internal/document"
)

// Op tags a WAL record's operation kind.
type Op byte

const (
	OpUpsert Op = 1
	OpDelete Op = 2
)

// Record is one decoded WAL entry.
type Record struct {
	Op  Op
	Doc document.Document // for OpDelete, only Doc.ID is meaningful
}

// segmentName returns the on-disk name for a collection's WAL segment:
// "{collection}_{seqno:09}.wal".
func segmentName(collection string, seqNo int) string {
	return fmt.Sprintf("%s_%09d.wal", collection, seqNo)
}

// Manager owns one collection's active WAL segment, flushing and fsyncing
// every write before it returns.
type Manager struct {
	mu sync.Mutex

	dir        string
	collection string
	seqNo      int

	file *os.File
	w    *bufio.Writer
}

// Open opens (creating if absent) the WAL segment at seqNo under
// {root}/wal/ for collection, ready for appends.
func Open(root, collection string, seqNo int) (*Manager, error) {
	dir := filepath.Join(root, "wal")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, segmentName(collection, seqNo))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Manager{
		dir:        dir,
		collection: collection,
		seqNo:      seqNo,
		file:       f,
		w:          bufio.NewWriter(f),
	}, nil
}

// Write appends one record, flushing and calling File.Sync before
// returning — a caller observing a successful Write is guaranteed the
// record survives a crash.
func (m *Manager) Write(op Op, doc document.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.w.WriteByte(byte(op)); err != nil {
		return err
	}

	switch op {
	case OpDelete:
		if _, err := m.w.Write(doc.ID.Bytes()); err != nil {
			return err
		}
	default:
		if err := doc.Encode(m.w); err != nil {
			return err
		}
	}

	if err := m.w.Flush(); err != nil {
		return err
	}
	return m.file.Sync()
}

// Read decodes every record in the segment from the start, stopping
// cleanly at EOF. A truncated final record (a crash mid-write) is treated
// as the logical end of the log rather than an error.
func (m *Manager) Read() ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	r := bufio.NewReader(m.file)

	var records []Record
	for {
		tagByte, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		switch Op(tagByte) {
		case OpDelete:
			var idBytes [16]byte
			if _, err := io.ReadFull(r, idBytes[:]); err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
					return records, nil
				}
				return nil, err
			}
			var doc document.Document
			copy(doc.ID[:], idBytes[:])
			records = append(records, Record{Op: OpDelete, Doc: doc})
		case OpUpsert:
			doc, err := document.Decode(r)
			if err != nil {
				if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
					return records, nil
				}
				return nil, err
			}
			records = append(records, Record{Op: OpUpsert, Doc: doc})
		default:
			// Unrecognized tag byte at this position means the segment is
			// corrupt past this point; stop rather than propagate garbage.
			return records, nil
		}
	}
	return records, nil
}

// SeqNo reports the segment's sequence number.
func (m *Manager) SeqNo() int {
	return m.seqNo
}

// Close flushes and closes the underlying file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.w.Flush(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}

// Remove closes and deletes the segment file, used once its records are
// durably reflected in a flushed SST.
func (m *Manager) Remove() error {
	path := m.file.Name()
	if err := m.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// Rotate closes the current segment and opens a new one with seqNo+1,
// returning the new Manager. The caller is responsible for deciding when
// the old segment's records are safe to discard.
func (m *Manager) Rotate() (*Manager, error) {
	m.mu.Lock()
	nextSeq := m.seqNo + 1
	collection := m.collection
	dir := m.dir
	m.mu.Unlock()

	if err := m.Close(); err != nil {
		return nil, err
	}

	root := filepath.Dir(dir)
	return Open(root, collection, nextSeq)
}
