package memtable

import (
	"sort"

	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/errs"
	"github.com/aetherdb/aetherdb/internal/vecdist"
)

// ivfMemTable is a placeholder conforming to the MemTable contract. It
// stores documents exactly, keyed by id, but does not implement
// inverted-file clustering or quantized Search.
type ivfMemTable struct {
	docs     map[docid.ID]document.Document
	distance vecdist.Kind
}

func newIVF(distance vecdist.Kind) *ivfMemTable {
	return &ivfMemTable{docs: make(map[docid.ID]document.Document), distance: distance}
}

func (m *ivfMemTable) Upsert(doc document.Document) { m.docs[doc.ID] = doc }

func (m *ivfMemTable) Get(id docid.ID) (document.Document, bool) {
	d, ok := m.docs[id]
	return d, ok
}

func (m *ivfMemTable) Delete(id docid.ID) { delete(m.docs, id) }

func (m *ivfMemTable) Size() int { return len(m.docs) }

func (m *ivfMemTable) SortedIter() []document.Document {
	out := make([]document.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return docid.Less(out[i].ID, out[j].ID) })
	return out
}

func (m *ivfMemTable) Kind() config.IndexType { return config.IVF }

func (m *ivfMemTable) Search([]float32, int) ([]ScoredDocument, error) {
	return nil, errs.New(errs.KindNotImplemented, "ivf search is not implemented")
}
