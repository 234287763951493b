// Package memtable implements AetherDB's in-memory, mutable document store.
// A MemTable is polymorphic by index kind: Flat is the only fully
// functional variant; HNSW and IVF are placeholders that conform to the
// same contract so the Collection never needs to know which one it holds.
package memtable

import (
	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/vecdist"
)

// ScoredDocument pairs a Document with its distance to a search query,
// lower is closer.
type ScoredDocument struct {
	Document document.Document
	Distance float64
}

// MemTable is the capability set every index-kind variant implements. All
// methods are invoked under a reader/writer lock held by the owning
// Collection — implementations need not be internally concurrent, only
// safe to share read-only once frozen.
type MemTable interface {
	// Upsert associates doc.ID with doc, replacing any prior mapping.
	Upsert(doc document.Document)
	// Get returns the document for id, if present.
	Get(id docid.ID) (document.Document, bool)
	// Delete removes id's mapping, if present. No-op otherwise.
	Delete(id docid.ID)
	// Size returns the number of live entries.
	Size() int
	// SortedIter returns all live documents in ascending id order. The
	// slice is a point-in-time snapshot, safe to iterate without holding
	// any further lock — used when freezing a generation into an SST.
	SortedIter() []document.Document
	// Search ranks up to topK documents by distance to query.
	Search(query []float32, topK int) ([]ScoredDocument, error)
	// Kind reports which index kind this MemTable implements.
	Kind() config.IndexType
}

// New constructs a MemTable for the given index kind and distance function.
func New(kind config.IndexType, distance vecdist.Kind) MemTable {
	switch kind {
	case config.HNSW:
		return newHNSW(distance)
	case config.IVF:
		return newIVF(distance)
	default:
		return newFlat(distance)
	}
}
