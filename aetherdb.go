// Package aetherdb is an embedded, process-local vector database storage
// engine: WAL-backed memtables freeze and flush into layered, immutable
// SST files, with a background multi-lane scheduler merging layers as
// they fill.
//
// Example usage:
//
//	db, err := aetherdb.Open("/path/to/database", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	col, err := db.CreateCollection(aetherdb.CollectionConfig{
//		Name:      "embeddings",
//		Dimension: 384,
//		Distance:  "cosine",
//		Index:     aetherdb.IndexConfig{Type: aetherdb.Flat},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	doc := aetherdb.NewDocument(vector, "hello world")
//	if err := col.Upsert(doc); err != nil {
//		log.Printf("upsert failed: %v", err)
//	}
package aetherdb

import (
	"github.com/aetherdb/aetherdb/internal/collection"
	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/database"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/memtable"
)

// Config is re-exported for user convenience.
type Config = config.Config

// CollectionConfig is re-exported for user convenience.
type CollectionConfig = config.CollectionConfig

// IndexConfig is re-exported for user convenience.
type IndexConfig = config.IndexConfig

// IndexType and its values are re-exported for user convenience.
type IndexType = config.IndexType

const (
	Flat = config.Flat
	HNSW = config.HNSW
	IVF  = config.IVF
)

// BackPressureMode and its values are re-exported for user convenience.
type BackPressureMode = config.BackPressureMode

const (
	BackPressureBlock = config.BackPressureBlock
	BackPressureError = config.BackPressureError
)

// DocID is a 128-bit document identifier.
type DocID = docid.ID

// Document is a single stored record: an id, a fixed-dimension vector,
// and an opaque content payload.
type Document = document.Document

// ScoredDocument pairs a Document with its distance to a search query.
type ScoredDocument = memtable.ScoredDocument

// DefaultConfig returns a Config populated with AetherDB's defaults.
var DefaultConfig = config.DefaultConfig

// NewDocument creates a Document with a freshly generated id.
func NewDocument(vector []float32, content string) Document {
	return document.New(vector, content)
}

// DB is a thread-safe, process-local AetherDB instance holding zero or
// more collections.
type DB struct {
	db *database.Database
}

// Open opens or creates the database rooted at path, taking an exclusive
// directory lock. A second Open call against the same path from within
// this process returns a handle to the same instance rather than
// re-locking; from another process it fails until the first is closed.
func Open(path string, cfg *Config) (*DB, error) {
	d, err := database.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

// Collection is one AetherDB document collection.
type Collection struct {
	col *collection.Collection
}

// CreateCollection creates and opens a new collection with the given
// configuration.
func (db *DB) CreateCollection(cfg CollectionConfig) (*Collection, error) {
	c, err := db.db.CreateCollection(cfg)
	if err != nil {
		return nil, err
	}
	return &Collection{col: c}, nil
}

// Collection returns a handle to the named, already-open collection.
func (db *DB) Collection(name string) (*Collection, error) {
	c, err := db.db.GetCollection(name)
	if err != nil {
		return nil, err
	}
	return &Collection{col: c}, nil
}

// Collections lists the names of every open collection.
func (db *DB) Collections() []string {
	return db.db.ListCollections()
}

// Close flushes and closes every collection, stops background
// compaction, and releases the directory lock.
func (db *DB) Close() error {
	return db.db.Close()
}

// Upsert inserts or replaces doc by its id.
func (c *Collection) Upsert(doc Document) error {
	return c.col.Upsert(doc)
}

// Fetch returns the document for id, if present.
func (c *Collection) Fetch(id DocID) (Document, bool, error) {
	return c.col.Fetch(id)
}

// Delete removes id, if present.
func (c *Collection) Delete(id DocID) error {
	return c.col.Delete(id)
}

// Search ranks up to topK documents by distance to query.
func (c *Collection) Search(query []float32, topK int) ([]ScoredDocument, error) {
	return c.col.Search(query, topK)
}

// Name returns the collection's name.
func (c *Collection) Name() string {
	return c.col.Name()
}
