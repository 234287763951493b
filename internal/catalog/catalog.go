// Package catalog tracks the set of live SST files for a collection,
// organized into layers with a doubling growth factor, and resolves a
// point lookup across everything that could hold a given id.
package catalog

import (
	"sort"
	"sync"

	"github.com/aetherdb/aetherdb/internal/docid"
)

// SSTMetadata describes one on-disk SST file without holding it open.
type SSTMetadata struct {
	Path    string
	Layer   int
	SeqNo   int
	MinID   docid.ID
	MaxID   docid.ID
	NumDocs int
}

// EventKind tags a catalog change, surfaced to callers observing
// compaction progress.
type EventKind int

const (
	EventAdded EventKind = iota
	EventRemoved
)

// Event describes one catalog mutation (an Add or a Remove). Add and
// Remove do not emit Events themselves.
type Event struct {
	Kind EventKind
	SST  SSTMetadata
}

// Catalog is the in-memory index of a collection's SST files, grouped by
// layer. Layer 0 holds freshly flushed tables; layer capacity doubles
// with depth, and compaction merges a layer's tables into the next one
// once it exceeds its capacity.
type Catalog struct {
	mu     sync.RWMutex
	layers map[int][]SSTMetadata
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{layers: make(map[int][]SSTMetadata)}
}

// LayerCapacity returns how many SST files layer may hold before it's
// eligible for compaction into layer+1: layer 0 holds 4, each layer
// below doubles from there.
func LayerCapacity(layer int) int {
	capacity := 4
	for i := 0; i < layer; i++ {
		capacity *= 2
	}
	return capacity
}

// Add registers a newly written SST file in its layer.
func (c *Catalog) Add(meta SSTMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers[meta.Layer] = append(c.layers[meta.Layer], meta)
}

// Remove deletes the SST at path from the catalog (a compaction input
// that's been superseded by its output).
func (c *Catalog) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for layer, metas := range c.layers {
		for i, m := range metas {
			if m.Path == path {
				c.layers[layer] = append(metas[:i], metas[i+1:]...)
				return
			}
		}
	}
}

// Lookup returns every SST whose [MinID, MaxID] range could contain id,
// newest first: a lower layer number holds newer data, so candidates are
// ordered by ascending Layer, and within one layer by descending SeqNo.
// Resolution is newest-wins: the caller should stop at the first hit.
func (c *Catalog) Lookup(id docid.ID) []SSTMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var candidates []SSTMetadata
	for _, metas := range c.layers {
		for _, m := range metas {
			if docid.InRange(id, m.MinID, m.MaxID) {
				candidates = append(candidates, m)
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Layer != candidates[j].Layer {
			return candidates[i].Layer < candidates[j].Layer // lower layer is newer
		}
		return candidates[i].SeqNo > candidates[j].SeqNo
	})
	return candidates
}

// LayerTables returns a snapshot of layer's current tables.
func (c *Catalog) LayerTables(layer int) []SSTMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]SSTMetadata, len(c.layers[layer]))
	copy(out, c.layers[layer])
	return out
}

// OverCapacity reports layers that currently exceed LayerCapacity,
// ascending, the order a compaction scheduler should service them in.
func (c *Catalog) OverCapacity() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var layers []int
	for layer, metas := range c.layers {
		if len(metas) > LayerCapacity(layer) {
			layers = append(layers, layer)
		}
	}
	sort.Ints(layers)
	return layers
}
