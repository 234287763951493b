package memtable

import (
	"math/rand"
	"sort"
	"time"

	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/errs"
	"github.com/aetherdb/aetherdb/internal/vecdist"
)

// hnswMaxLevel and hnswProbability size the multi-level skip structure a
// real HNSW graph's layers would sit on top of — the same level-assignment
// scheme a classic skiplist uses, since HNSW's layered proximity graph is
// itself a generalization of the skiplist idea. Only insertion/lookup by id
// is implemented here; the approximate-neighbor graph is not. Flat is the
// only fully functional index kind; HNSW and IVF are placeholders
// conforming to the same contract.
const (
	hnswMaxLevel    = 16
	hnswProbability = 0.5
)

type hnswNode struct {
	id   docid.ID
	doc  document.Document
	next []*hnswNode
}

// hnswMemTable is a placeholder conforming to the MemTable contract. It
// keeps documents addressable by id on a leveled list (the entry-point
// skeleton a real proximity graph would be built from) but does not
// implement approximate nearest-neighbor Search.
type hnswMemTable struct {
	head     *hnswNode
	level    int
	maxLevel int
	size     int
	rng      *rand.Rand
	distance vecdist.Kind
}

func newHNSW(distance vecdist.Kind) *hnswMemTable {
	return &hnswMemTable{
		head:     &hnswNode{next: make([]*hnswNode, hnswMaxLevel)},
		level:    1,
		maxLevel: hnswMaxLevel,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		distance: distance,
	}
}

func (m *hnswMemTable) randomLevel() int {
	level := 1
	for m.rng.Float64() < hnswProbability && level < m.maxLevel {
		level++
	}
	return level
}

func (m *hnswMemTable) Upsert(doc document.Document) {
	update := make([]*hnswNode, m.maxLevel)
	current := m.head

	for i := m.level - 1; i >= 0; i-- {
		for current.next[i] != nil && docid.Less(current.next[i].id, doc.ID) {
			current = current.next[i]
		}
		update[i] = current
	}

	current = current.next[0]
	if current != nil && current.id == doc.ID {
		current.doc = doc
		return
	}

	newLevel := m.randomLevel()
	if newLevel > m.level {
		for i := m.level; i < newLevel; i++ {
			update[i] = m.head
		}
		m.level = newLevel
	}

	node := &hnswNode{id: doc.ID, doc: doc, next: make([]*hnswNode, newLevel)}
	for i := range newLevel {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
	}
	m.size++
}

func (m *hnswMemTable) Get(id docid.ID) (document.Document, bool) {
	current := m.head
	for i := m.level - 1; i >= 0; i-- {
		for current.next[i] != nil && docid.Less(current.next[i].id, id) {
			current = current.next[i]
		}
	}
	current = current.next[0]
	if current != nil && current.id == id {
		return current.doc, true
	}
	return document.Document{}, false
}

func (m *hnswMemTable) Delete(id docid.ID) {
	update := make([]*hnswNode, m.maxLevel)
	current := m.head

	for i := m.level - 1; i >= 0; i-- {
		for current.next[i] != nil && docid.Less(current.next[i].id, id) {
			current = current.next[i]
		}
		update[i] = current
	}

	target := current.next[0]
	if target == nil || target.id != id {
		return
	}
	for i := 0; i < m.level; i++ {
		if update[i].next[i] != target {
			break
		}
		update[i].next[i] = target.next[i]
	}
	m.size--
}

func (m *hnswMemTable) Size() int { return m.size }

func (m *hnswMemTable) SortedIter() []document.Document {
	out := make([]document.Document, 0, m.size)
	for n := m.head.next[0]; n != nil; n = n.next[0] {
		out = append(out, n.doc)
	}
	sort.Slice(out, func(i, j int) bool { return docid.Less(out[i].ID, out[j].ID) })
	return out
}

func (m *hnswMemTable) Kind() config.IndexType { return config.HNSW }

func (m *hnswMemTable) Search([]float32, int) ([]ScoredDocument, error) {
	return nil, errs.New(errs.KindNotImplemented, "hnsw search is not implemented")
}
