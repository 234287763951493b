// Package docid defines the 128-bit document identifier used throughout
// AetherDB. Identifiers are v4 UUIDs whose 16 raw bytes are treated as a
// big-endian u128 — byte-lexicographic order equals numeric order, which is
// exactly what sorted_iter and SST range lookups rely on.
package docid

import (
	"bytes"

	"github.com/google/uuid"
)

// Size is the encoded length of an ID in bytes.
const Size = 16

// ID is a 128-bit document identifier.
type ID [Size]byte

// New generates a fresh v4 UUID as an ID.
func New() ID {
	return ID(uuid.New())
}

// Min is the smallest possible ID.
var Min = ID{}

// Max is the largest possible ID.
var Max = func() ID {
	var id ID
	for i := range id {
		id[i] = 0xFF
	}
	return id
}()

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b,
// matching the numeric order of the underlying 128-bit integer.
func Compare(a, b ID) int {
	return bytes.Compare(a[:], b[:])
}

// Less reports whether a sorts before b.
func Less(a, b ID) bool { return Compare(a, b) < 0 }

// InRange reports whether id falls within [min, max] inclusive.
func InRange(id, min, max ID) bool {
	return Compare(id, min) >= 0 && Compare(id, max) <= 0
}

// String renders the ID as a standard UUID string, for logging.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the 16 raw bytes of the ID.
func (id ID) Bytes() []byte {
	return id[:]
}

// FromBytes reads an ID from a 16-byte slice.
func FromBytes(b []byte) ID {
	var id ID
	copy(id[:], b)
	return id
}
