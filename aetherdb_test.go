package aetherdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aetherdb/aetherdb"
)

func TestEndToEndUpsertFetchDeleteAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	db, err := aetherdb.Open(dir, nil)
	require.NoError(t, err)

	col, err := db.CreateCollection(aetherdb.CollectionConfig{
		Name:      "embeddings",
		Dimension: 4,
		Distance:  "cosine",
		Index:     aetherdb.IndexConfig{Type: aetherdb.Flat},
	})
	require.NoError(t, err)
	require.Equal(t, "embeddings", col.Name())

	doc := aetherdb.NewDocument([]float32{0.1, 0.2, 0.3, 0.4}, "hello world")
	require.NoError(t, col.Upsert(doc))

	got, found, err := col.Fetch(doc.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello world", got.Content)

	require.NoError(t, col.Delete(doc.ID))
	_, found, err = col.Fetch(doc.ID)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, db.Close())

	reopened, err := aetherdb.Open(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	require.Contains(t, reopened.Collections(), "embeddings")
	restored, err := reopened.Collection("embeddings")
	require.NoError(t, err)
	_, found, err = restored.Fetch(doc.ID)
	require.NoError(t, err)
	require.False(t, found) // deletion was persisted before Close
}

func TestSearchReturnsClosestByDistance(t *testing.T) {
	db, err := aetherdb.Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer db.Close()

	col, err := db.CreateCollection(aetherdb.CollectionConfig{
		Name:      "vecs",
		Dimension: 2,
		Distance:  "l2",
		Index:     aetherdb.IndexConfig{Type: aetherdb.Flat},
	})
	require.NoError(t, err)

	closest := aetherdb.NewDocument([]float32{5, 5}, "closest")
	require.NoError(t, col.Upsert(closest))
	require.NoError(t, col.Upsert(aetherdb.NewDocument([]float32{100, 100}, "far")))

	results, err := col.Search([]float32{5, 5}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, closest.ID, results[0].Document.ID)
}

func TestCollectionNotFound(t *testing.T) {
	db, err := aetherdb.Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Collection("missing")
	require.Error(t, err)
}
