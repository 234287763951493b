package memtable

import (
	"container/heap"
	"sort"

	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/vecdist"
)

// flatMemTable is the exact, map-backed variant: O(1) Get/Upsert/Delete,
// and a brute-force distance scan for Search.
type flatMemTable struct {
	docs     map[docid.ID]document.Document
	distance vecdist.Kind
}

func newFlat(distance vecdist.Kind) *flatMemTable {
	return &flatMemTable{
		docs:     make(map[docid.ID]document.Document),
		distance: distance,
	}
}

func (m *flatMemTable) Upsert(doc document.Document) {
	m.docs[doc.ID] = doc
}

func (m *flatMemTable) Get(id docid.ID) (document.Document, bool) {
	d, ok := m.docs[id]
	return d, ok
}

func (m *flatMemTable) Delete(id docid.ID) {
	delete(m.docs, id)
}

func (m *flatMemTable) Size() int {
	return len(m.docs)
}

func (m *flatMemTable) SortedIter() []document.Document {
	out := make([]document.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return docid.Less(out[i].ID, out[j].ID)
	})
	return out
}

func (m *flatMemTable) Kind() config.IndexType { return config.Flat }

// Search ranks every live document by distance to query and returns the
// closest topK, using a bounded max-heap so the working set never exceeds
// topK candidates.
func (m *flatMemTable) Search(query []float32, topK int) ([]ScoredDocument, error) {
	if topK <= 0 {
		return nil, nil
	}

	h := &scoredMaxHeap{}
	heap.Init(h)

	for _, doc := range m.docs {
		dist := vecdist.Distance(m.distance, query, doc.Vector)
		if h.Len() < topK {
			heap.Push(h, ScoredDocument{Document: doc, Distance: dist})
			continue
		}
		if dist < (*h)[0].Distance {
			heap.Pop(h)
			heap.Push(h, ScoredDocument{Document: doc, Distance: dist})
		}
	}

	out := make([]ScoredDocument, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(ScoredDocument)
	}
	return out, nil
}

// scoredMaxHeap is a max-heap on Distance, used to keep the topK closest
// candidates while scanning: the root is always the current worst of the
// kept set, so it's the one evicted when a closer candidate shows up.
type scoredMaxHeap []ScoredDocument

func (h scoredMaxHeap) Len() int            { return len(h) }
func (h scoredMaxHeap) Less(i, j int) bool  { return h[i].Distance > h[j].Distance }
func (h scoredMaxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredMaxHeap) Push(x any)         { *h = append(*h, x.(ScoredDocument)) }
func (h *scoredMaxHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
