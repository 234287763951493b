// Package document defines AetherDB's canonical record type and its binary
// codec. The codec is self-describing and little-endian: a decode failure
// is how callers distinguish "clean end of a WAL/SST section" from
// genuine corruption.
package document

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/aetherdb/aetherdb/internal/docid"
)

// Document is a single stored record: an id, a fixed-dimension float vector,
// and an opaque content payload.
type Document struct {
	ID      docid.ID
	Vector  []float32
	Content string
}

// New creates a Document with a freshly generated id.
func New(vector []float32, content string) Document {
	return Document{ID: docid.New(), Vector: vector, Content: content}
}

// Dimension returns the length of the vector.
func (d Document) Dimension() int { return len(d.Vector) }

// EncodedLen returns the number of bytes Encode will write for d.
func (d Document) EncodedLen() int {
	return docid.Size + 4 + 4*len(d.Vector) + 8 + len(d.Content)
}

// Encode writes d's self-describing binary representation:
//
//	id(16) | vector_len(4,u32 LE) | vector(4*len, f32 LE) | content_len(8,u64 LE) | content
func (d Document) Encode(w io.Writer) error {
	buf := make([]byte, d.EncodedLen())
	n := copy(buf, d.ID[:])

	binary.LittleEndian.PutUint32(buf[n:], uint32(len(d.Vector)))
	n += 4
	for _, f := range d.Vector {
		binary.LittleEndian.PutUint32(buf[n:], math.Float32bits(f))
		n += 4
	}

	binary.LittleEndian.PutUint64(buf[n:], uint64(len(d.Content)))
	n += 8
	n += copy(buf[n:], d.Content)

	_, err := w.Write(buf[:n])
	return err
}

// Decode reads a Document written by Encode. It returns io.ErrUnexpectedEOF
// (wrapped) when the reader is exhausted mid-record, which WAL replay
// treats as a clean end-of-log marker rather than corruption; SST reads
// report any decode failure as a deserialize error.
func Decode(r io.Reader) (Document, error) {
	var d Document

	var idBuf [docid.Size]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return d, wrapEOF(err)
	}
	d.ID = docid.ID(idBuf)

	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:4]); err != nil {
		return d, wrapEOF(err)
	}
	vecLen := binary.LittleEndian.Uint32(lenBuf[:4])

	if vecLen > 0 {
		raw := make([]byte, 4*vecLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return d, wrapEOF(err)
		}
		d.Vector = make([]float32, vecLen)
		for i := range d.Vector {
			d.Vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
		}
	}

	if _, err := io.ReadFull(r, lenBuf[:8]); err != nil {
		return d, wrapEOF(err)
	}
	contentLen := binary.LittleEndian.Uint64(lenBuf[:8])

	if contentLen > 0 {
		content := make([]byte, contentLen)
		if _, err := io.ReadFull(r, content); err != nil {
			return d, wrapEOF(err)
		}
		d.Content = string(content)
	}

	return d, nil
}

func wrapEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("document: truncated record: %w", io.ErrUnexpectedEOF)
	}
	return err
}
