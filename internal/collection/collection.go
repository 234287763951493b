// Package collection implements AetherDB's per-collection storage engine:
// WAL-backed active memtable, a FIFO of frozen memtables awaiting flush,
// a layered SST catalog, and compaction-task dispatch onto a shared
// scheduler.
package collection

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aetherdb/aetherdb/internal/catalog"
	"github.com/aetherdb/aetherdb/internal/compaction"
	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/docid"
	"github.com/aetherdb/aetherdb/internal/document"
	"github.com/aetherdb/aetherdb/internal/errs"
	"github.com/aetherdb/aetherdb/internal/memtable"
	"github.com/aetherdb/aetherdb/internal/sstable"
	"github.com/aetherdb/aetherdb/internal/vecdist"
	"github.com/aetherdb/aetherdb/internal/wal"
)

// Collection is one AetherDB document collection: its own WAL segments
// (in the database's shared wal/ directory) and SST layer directories, its
// own memtable generation chain, and its own lane on the shared compaction
// Scheduler.
type Collection struct {
	name     string
	dbRoot   string
	cfg      config.CollectionConfig
	distance vecdist.Kind

	dbCfg     *config.Config
	scheduler *compaction.Scheduler

	mu         sync.RWMutex
	cond       *sync.Cond
	active     memtable.MemTable
	activeWAL  *wal.Manager
	frozen     []frozenGen
	tombstones map[docid.ID]struct{}

	cat        *catalog.Catalog
	readers    map[string]*sstable.Reader
	sstCounter atomic.Uint64

	flushWG sync.WaitGroup
	closed  bool
}

type frozenGen struct {
	mt  memtable.MemTable
	wal *wal.Manager
}

// Open opens (or creates) the collection under dbRoot, replaying its
// active WAL segment (shared {dbRoot}/wal/ across every collection) into a
// fresh memtable and loading any existing SST layers from
// {dbRoot}/data/{name}/ into the catalog.
func Open(dbRoot string, cfg config.CollectionConfig, dbCfg *config.Config, scheduler *compaction.Scheduler) (*Collection, error) {
	cfg.FillDefaults()
	distance, err := vecdist.ParseKind(cfg.Distance)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidDistanceType, "collection: "+cfg.Name, err)
	}

	c := &Collection{
		name:       cfg.Name,
		dbRoot:     dbRoot,
		cfg:        cfg,
		distance:   distance,
		dbCfg:      dbCfg,
		scheduler:  scheduler,
		tombstones: make(map[docid.ID]struct{}),
		cat:        catalog.New(),
		readers:    make(map[string]*sstable.Reader),
	}
	c.cond = sync.NewCond(&c.mu)

	if err := c.loadSSTables(); err != nil {
		return nil, err
	}
	if err := c.openActiveWAL(); err != nil {
		return nil, err
	}
	return c, nil
}

// sstDir returns {dbRoot}/data/{name}/L{layer}, the pinned on-disk location
// for the collection's layer directories.
func (c *Collection) sstDir(layer int) string {
	return filepath.Join(c.dbRoot, "data", c.name, fmt.Sprintf("L%d", layer))
}

// loadSSTables scans {dbRoot}/data/{name}/L{n}/*.sst, opening a Reader and
// registering catalog metadata for each.
func (c *Collection) loadSSTables() error {
	base := filepath.Join(c.dbRoot, "data", c.name)
	layerDirs, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var maxSeq uint64
	for _, ld := range layerDirs {
		if !ld.IsDir() {
			continue
		}
		var layer int
		if _, err := fmt.Sscanf(ld.Name(), "L%d", &layer); err != nil {
			continue
		}
		files, err := os.ReadDir(filepath.Join(base, ld.Name()))
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			path := filepath.Join(base, ld.Name(), f.Name())
			r, err := sstable.Open(path)
			if err != nil {
				return fmt.Errorf("collection: open sst %s: %w", path, err)
			}
			var seq int
			fmt.Sscanf(f.Name(), "%d.sst", &seq)
			if uint64(seq) > maxSeq {
				maxSeq = uint64(seq)
			}
			minID, maxID, _ := r.IDRange()
			c.readers[path] = r
			c.cat.Add(catalog.SSTMetadata{
				Path: path, Layer: layer, SeqNo: seq,
				MinID: minID, MaxID: maxID, NumDocs: r.Count(),
			})
		}
	}
	c.sstCounter.Store(maxSeq)
	return nil
}

func (c *Collection) openActiveWAL() error {
	m, err := wal.Open(c.dbRoot, c.name, 0)
	if err != nil {
		return err
	}
	indexCfg := c.cfg.Index
	idxType := indexCfg.Type
	active := memtable.New(idxType, c.distance)

	records, err := m.Read()
	if err != nil {
		return err
	}
	for _, rec := range records {
		switch rec.Op {
		case wal.OpUpsert:
			active.Upsert(rec.Doc)
		case wal.OpDelete:
			active.Delete(rec.Doc.ID)
		}
	}
	c.active = active
	c.activeWAL = m
	return nil
}

// Upsert validates doc's dimension, appends it to the WAL, and applies it
// to the active memtable, freezing (and, if the configured back-pressure
// mode calls for it, blocking) once the memtable crosses its size
// threshold.
func (c *Collection) Upsert(doc document.Document) error {
	if doc.Dimension() != c.cfg.Dimension {
		return errs.New(errs.KindInvalidDimension,
			fmt.Sprintf("collection %s: expected dimension %d, got %d", c.name, c.cfg.Dimension, doc.Dimension()))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.waitForCapacityLocked(); err != nil {
		return err
	}

	if err := c.activeWAL.Write(wal.OpUpsert, doc); err != nil {
		return errs.Wrap(errs.KindWalWrite, "collection: "+c.name, err)
	}
	c.active.Upsert(doc)
	delete(c.tombstones, doc.ID)

	if c.active.Size() >= c.cfg.MemtableSizeThreshold {
		c.freezeActiveLocked()
	}
	return nil
}

// Delete marks id as removed: the tombstone lives only in Collection's
// in-memory set, and deletes never reach the SST layer, so a subsequent
// Upsert of the same id simply clears it.
func (c *Collection) Delete(id docid.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.waitForCapacityLocked(); err != nil {
		return err
	}

	if err := c.activeWAL.Write(wal.OpDelete, document.Document{ID: id}); err != nil {
		return errs.Wrap(errs.KindWalWrite, "collection: "+c.name, err)
	}
	c.active.Delete(id)
	c.tombstones[id] = struct{}{}
	return nil
}

// Fetch returns the document for id, searching the active memtable, then
// frozen generations newest-first, then the SST catalog ("newest wins").
func (c *Collection) Fetch(id docid.ID) (document.Document, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, deleted := c.tombstones[id]; deleted {
		return document.Document{}, false, nil
	}

	if doc, ok := c.active.Get(id); ok {
		return doc, true, nil
	}
	for i := len(c.frozen) - 1; i >= 0; i-- {
		if doc, ok := c.frozen[i].mt.Get(id); ok {
			return doc, true, nil
		}
	}

	for _, meta := range c.cat.Lookup(id) {
		r, ok := c.readers[meta.Path]
		if !ok {
			continue
		}
		doc, found, err := r.Get(id)
		if err != nil {
			return document.Document{}, false, err
		}
		if found {
			return doc, true, nil
		}
	}
	return document.Document{}, false, nil
}

// Search ranks the active memtable's live documents by distance to query.
// Search is only meaningful on Flat collections today; HNSW and IVF are
// placeholders, and frozen generations and SST layers are not yet merged
// into a cross-layer Search.
func (c *Collection) Search(query []float32, topK int) ([]memtable.ScoredDocument, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active.Search(query, topK)
}

// waitForCapacityLocked blocks (BackPressureBlock) or errors
// (BackPressureError) while the frozen generation count is at or above
// the configured watermark. Must be called with c.mu held.
func (c *Collection) waitForCapacityLocked() error {
	watermark := c.dbCfg.FrozenMemtableWatermark
	for len(c.frozen) >= watermark {
		if c.dbCfg.BackPressureMode == config.BackPressureError {
			return errs.New(errs.KindBackPressure, fmt.Sprintf("collection %s: frozen memtable watermark reached", c.name))
		}
		c.cond.Wait()
	}
	return nil
}

// freezeActiveLocked moves the active memtable into the frozen FIFO,
// rotates the WAL, and dispatches an asynchronous flush. Must be called
// with c.mu held.
func (c *Collection) freezeActiveLocked() {
	gen := frozenGen{mt: c.active, wal: c.activeWAL}
	c.frozen = append(c.frozen, gen)

	nextWAL, err := c.activeWAL.Rotate()
	if err != nil {
		log.Printf("collection %s: wal rotate error: %v", c.name, err)
		// Leave c.activeWAL and c.active as they were and take the
		// generation back off the frozen FIFO, so nothing is queued for flush.
		c.frozen = c.frozen[:len(c.frozen)-1]
		return
	}
	c.activeWAL = nextWAL
	c.active = memtable.New(c.cfg.Index.Type, c.distance)

	c.flushWG.Add(1)
	go c.flushOldest()
}

// flushOldest writes the oldest frozen generation to a new layer-0 SST,
// registers it in the catalog, removes the generation's WAL segment, and
// dispatches a compaction task for the lowest layer that is now over
// capacity, if any.
func (c *Collection) flushOldest() {
	defer c.flushWG.Done()

	c.mu.Lock()
	if len(c.frozen) == 0 {
		c.mu.Unlock()
		return
	}
	gen := c.frozen[0]
	c.mu.Unlock()

	docs := gen.mt.SortedIter()
	seq := c.sstCounter.Add(1)
	layerDir := c.sstDir(0)
	if err := os.MkdirAll(layerDir, 0o755); err != nil {
		log.Printf("collection %s: flush mkdir error: %v", c.name, err)
		return
	}
	path := filepath.Join(layerDir, fmt.Sprintf("%06d.sst", seq))
	if err := sstable.WriteMemtable(path, docs); err != nil {
		log.Printf("collection %s: flushMemtable error: %v", c.name, err)
		return
	}

	r, err := sstable.Open(path)
	if err != nil {
		log.Printf("collection %s: failed to open flushed sst for read: %v", c.name, err)
		return
	}
	minID, maxID, _ := r.IDRange()

	c.mu.Lock()
	c.readers[path] = r
	c.cat.Add(catalog.SSTMetadata{Path: path, Layer: 0, SeqNo: int(seq), MinID: minID, MaxID: maxID, NumDocs: r.Count()})
	c.frozen = c.frozen[1:]
	c.cond.Broadcast()
	c.mu.Unlock()

	if err := gen.wal.Remove(); err != nil {
		log.Printf("collection %s: failed to remove flushed wal segment: %v", c.name, err)
	}

	if over := c.cat.OverCapacity(); len(over) > 0 && c.scheduler != nil {
		c.dispatchCompaction(over[0])
	}
}

// dispatchCompaction submits a Task merging layer's current tables into
// layer+1.
func (c *Collection) dispatchCompaction(layer int) {
	inputs := c.cat.LayerTables(layer)
	if len(inputs) == 0 {
		return
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].SeqNo < inputs[j].SeqNo })

	c.scheduler.Submit(compaction.Task{
		Collection: c.name,
		Layer:      layer,
		Inputs:     inputs,
		Apply: func(ctx context.Context, inputs []catalog.SSTMetadata) (catalog.SSTMetadata, error) {
			return c.applyCompaction(layer, inputs)
		},
	})
}

func (c *Collection) applyCompaction(layer int, inputs []catalog.SSTMetadata) (catalog.SSTMetadata, error) {
	c.mu.RLock()
	readers := make([]*sstable.Reader, 0, len(inputs))
	for _, meta := range inputs {
		if r, ok := c.readers[meta.Path]; ok {
			readers = append(readers, r)
		}
	}
	c.mu.RUnlock()

	merged, err := sstable.Merge(readers)
	if err != nil {
		return catalog.SSTMetadata{}, err
	}

	nextLayer := layer + 1
	seq := c.sstCounter.Add(1)
	dir := c.sstDir(nextLayer)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return catalog.SSTMetadata{}, err
	}
	path := filepath.Join(dir, fmt.Sprintf("%06d.sst", seq))
	if err := sstable.WriteMemtable(path, merged); err != nil {
		return catalog.SSTMetadata{}, err
	}
	r, err := sstable.Open(path)
	if err != nil {
		return catalog.SSTMetadata{}, err
	}
	minID, maxID, _ := r.IDRange()
	out := catalog.SSTMetadata{Path: path, Layer: nextLayer, SeqNo: int(seq), MinID: minID, MaxID: maxID, NumDocs: r.Count()}

	c.mu.Lock()
	c.readers[path] = r
	c.cat.Add(out)
	for _, meta := range inputs {
		c.cat.Remove(meta.Path)
		if old, ok := c.readers[meta.Path]; ok {
			old.Close()
			delete(c.readers, meta.Path)
		}
	}
	c.mu.Unlock()

	for _, meta := range inputs {
		if err := os.Remove(meta.Path); err != nil {
			log.Printf("collection %s: failed to remove compacted sst %s: %v", c.name, meta.Path, err)
		}
	}

	if over := c.cat.OverCapacity(); len(over) > 0 {
		for _, l := range over {
			c.dispatchCompaction(l)
		}
	}
	return out, nil
}

// Close flushes any remaining frozen generations synchronously, closes
// the active WAL, and closes every open SST reader.
func (c *Collection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	hasActive := c.active.Size() > 0
	c.mu.Unlock()

	if hasActive {
		c.mu.Lock()
		c.freezeActiveLocked()
		c.mu.Unlock()
	}
	c.flushWG.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.activeWAL != nil {
		if cerr := c.activeWAL.Close(); cerr != nil {
			err = cerr
		}
	}
	for _, r := range c.readers {
		_ = r.Close()
	}
	return err
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }
