package sstable

import (
	"container/heap"

	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
)

// Merge combines sources (ordered oldest to newest, e.g. by ascending
// layer/seq_no) into a single ascending-id document stream, keeping the
// newest copy of any id present in more than one source, the same
// newest-wins rule the catalog applies at lookup time. Tombstones never
// reach the SST layer (deletes are memtable-only), so merging is pure
// dedup, with no deletion markers to propagate.
func Merge(sources []*Reader) ([]document.Document, error) {
	streams := make([][]document.Document, len(sources))
	for i, src := range sources {
		docs, err := src.All()
		if err != nil {
			return nil, err
		}
		streams[i] = docs
	}

	h := &mergeHeap{}
	heap.Init(h)
	for i, docs := range streams {
		if len(docs) > 0 {
			heap.Push(h, &mergeItem{doc: docs[0], stream: i, pos: 0})
		}
	}

	var out []document.Document
	var outPriority []int
	var lastID *[16]byte

	for h.Len() > 0 {
		item := heap.Pop(h).(*mergeItem)

		if lastID == nil || item.doc.ID != *lastID {
			out = append(out, item.doc)
			outPriority = append(outPriority, item.stream)
			id := item.doc.ID
			lastID = &id
		} else if item.stream > outPriority[len(outPriority)-1] {
			out[len(out)-1] = item.doc
			outPriority[len(outPriority)-1] = item.stream
		}

		next := item.pos + 1
		if next < len(streams[item.stream]) {
			heap.Push(h, &mergeItem{doc: streams[item.stream][next], stream: item.stream, pos: next})
		}
	}

	return out, nil
}

// mergeItem is one position within one source stream, ordered by id then
// by stream recency (higher stream index == newer source, per Merge's
// oldest-to-newest contract).
type mergeItem struct {
	doc    document.Document
	stream int
	pos    int
}

type mergeHeap []*mergeItem

func (h mergeHeap) Len() int { return len(h) }

func (h mergeHeap) Less(i, j int) bool {
	cmp := docid.Compare(h[i].doc.ID, h[j].doc.ID)
	if cmp != 0 {
		return cmp < 0
	}
	return h[i].stream > h[j].stream
}

func (h mergeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mergeHeap) Push(x any) { *h = append(*h, x.(*mergeItem)) }

func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
