package memtable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/errs"
	"github.com/aetherdb/aetherdb/internal/memtable"
	"github.com/aetherdb/aetherdb/internal/vecdist"
)

func TestFlatUpsertGetDelete(t *testing.T) {
	m := memtable.New(config.Flat, vecdist.Cosine)
	require.Equal(t, config.Flat, m.Kind())

	doc := document.New([]float32{1, 0, 0}, "a")
	m.Upsert(doc)
	require.Equal(t, 1, m.Size())

	got, ok := m.Get(doc.ID)
	require.True(t, ok)
	require.Equal(t, doc.Content, got.Content)

	m.Delete(doc.ID)
	_, ok = m.Get(doc.ID)
	require.False(t, ok)
	require.Equal(t, 0, m.Size())
}

func TestFlatSortedIterIsAscending(t *testing.T) {
	m := memtable.New(config.Flat, vecdist.L2)
	for i := 0; i < 20; i++ {
		m.Upsert(document.New([]float32{float32(i)}, "x"))
	}
	docs := m.SortedIter()
	require.Len(t, docs, 20)
	for i := 1; i < len(docs); i++ {
		require.LessOrEqual(t, docs[i-1].ID.String(), docs[i].ID.String())
	}
}

func TestFlatSearchReturnsClosestTopK(t *testing.T) {
	m := memtable.New(config.Flat, vecdist.L2)
	target := []float32{10, 10}
	closest := document.New([]float32{10, 10}, "closest")
	m.Upsert(closest)
	m.Upsert(document.New([]float32{0, 0}, "far1"))
	m.Upsert(document.New([]float32{100, 100}, "far2"))
	m.Upsert(document.New([]float32{9, 11}, "near"))

	results, err := m.Search(target, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, closest.ID, results[0].Document.ID)
	require.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestFlatSearchTopKZeroReturnsEmpty(t *testing.T) {
	m := memtable.New(config.Flat, vecdist.L2)
	m.Upsert(document.New([]float32{1}, "x"))
	results, err := m.Search([]float32{1}, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestHNSWConformsToContractButSearchIsNotImplemented(t *testing.T) {
	m := memtable.New(config.HNSW, vecdist.Cosine)
	require.Equal(t, config.HNSW, m.Kind())

	doc := document.New([]float32{1, 2}, "a")
	m.Upsert(doc)
	got, ok := m.Get(doc.ID)
	require.True(t, ok)
	require.Equal(t, doc.Content, got.Content)
	require.Equal(t, 1, m.Size())

	m.Delete(doc.ID)
	require.Equal(t, 0, m.Size())

	_, err := m.Search([]float32{1, 2}, 1)
	require.ErrorIs(t, err, errs.ErrNotImplemented)
}

func TestIVFConformsToContractButSearchIsNotImplemented(t *testing.T) {
	m := memtable.New(config.IVF, vecdist.Cosine)
	require.Equal(t, config.IVF, m.Kind())

	doc := document.New([]float32{1, 2}, "a")
	m.Upsert(doc)
	require.Equal(t, 1, m.Size())

	_, err := m.Search([]float32{1, 2}, 1)
	require.ErrorIs(t, err, errs.ErrNotImplemented)
}

func TestHNSWManyInsertsPreserveOrder(t *testing.T) {
	m := memtable.New(config.HNSW, vecdist.L2)
	for i := 0; i < 50; i++ {
		m.Upsert(document.New([]float32{float32(i)}, "x"))
	}
	require.Equal(t, 50, m.Size())
	docs := m.SortedIter()
	require.Len(t, docs, 50)
	for i := 1; i < len(docs); i++ {
		require.LessOrEqual(t, docs[i-1].ID.String(), docs[i].ID.String())
	}
}
