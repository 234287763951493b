// Package database implements AetherDB's process-local, DB-level state:
// an exclusive directory lock, the shared compaction scheduler, and a
// per-path weak-reference handle registry so two Open calls against the
// same path return a handle to the same live instance rather than
// racing to open the directory twice.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"weak"

	"github.com/gofrs/flock"

	"github.com/aetherdb/aetherdb/internal/collection"
	"github.com/aetherdb/aetherdb/internal/compaction"
	"github.com/aetherdb/aetherdb/internal/config"
	"github.com/aetherdb/aetherdb/internal/errs"
)

// registry maps an absolute database path to a weak reference of its open
// Database, letting concurrent Open calls against the same path observe
// (and share) an already-open handle instead of fighting over the
// directory lock.
var (
	registryMu sync.Mutex
	registry   = make(map[string]weak.Pointer[Database])
)

// Database is one open AetherDB directory: its file lock, its compaction
// scheduler, and its live collections.
type Database struct {
	path string
	lock *flock.Flock
	cfg  *config.Config

	scheduler *compaction.Scheduler
	schedCtx  context.CancelFunc

	mu          sync.RWMutex
	collections map[string]*collection.Collection
}

// Open opens or creates the database rooted at path. If this process
// already holds a live handle for path, that handle is returned instead
// of acquiring the lock again; otherwise Open takes an exclusive
// directory lock, failing if another process holds it.
func Open(path string, cfg *config.Config) (*Database, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidPath, path, err)
	}

	registryMu.Lock()
	if ptr, ok := registry[abs]; ok {
		if db := ptr.Value(); db != nil {
			registryMu.Unlock()
			return db, nil
		}
		delete(registry, abs)
	}
	registryMu.Unlock()

	if cfg == nil {
		cfg = config.DefaultConfig()
	} else {
		cfg.FillDefaults()
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errs.Wrap(errs.KindInvalidPath, abs, err)
	}

	lock := flock.New(filepath.Join(abs, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidPath, abs, err)
	}
	if !locked {
		return nil, errs.New(errs.KindInvalidPath, fmt.Sprintf("database: %s is locked by another process", abs))
	}

	scheduler := compaction.New(cfg.MinWorkers, cfg.MaxWorkers, cfg.WorkerPollInterval, 256)
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)

	db := &Database{
		path:        abs,
		lock:        lock,
		cfg:         cfg,
		scheduler:   scheduler,
		schedCtx:    cancel,
		collections: make(map[string]*collection.Collection),
	}

	if err := db.loadCollections(); err != nil {
		cancel()
		lock.Unlock()
		return nil, err
	}

	registryMu.Lock()
	registry[abs] = weak.Make(db)
	registryMu.Unlock()

	return db, nil
}

// loadCollections opens every subdirectory under {path}/collections that
// carries a collection.yaml manifest, restoring it from its WAL and SST
// layers.
func (db *Database) loadCollections() error {
	dir := filepath.Join(db.path, "collections")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		manifest, err := readManifest(filepath.Join(dir, e.Name()))
		if err != nil {
			continue // directory without a manifest isn't a collection
		}
		col, err := collection.Open(db.path, manifest, db.cfg, db.scheduler)
		if err != nil {
			return err
		}
		db.collections[manifest.Name] = col
	}
	return nil
}

// CreateCollection creates and opens a new collection, persisting its
// configuration as a manifest so it can be restored on the next Open.
func (db *Database) CreateCollection(cfg config.CollectionConfig) (*collection.Collection, error) {
	cfg.FillDefaults()
	if cfg.Dimension <= 0 || cfg.Dimension > config.MaxDimension {
		return nil, errs.New(errs.KindInvalidDimension, fmt.Sprintf("collection %s: dimension %d out of range", cfg.Name, cfg.Dimension))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.collections[cfg.Name]; exists {
		return nil, errs.New(errs.KindInvalidPath, fmt.Sprintf("collection %s already exists", cfg.Name))
	}

	dir := filepath.Join(db.path, "collections")
	if err := writeManifest(filepath.Join(dir, cfg.Name), cfg); err != nil {
		return nil, err
	}

	col, err := collection.Open(db.path, cfg, db.cfg, db.scheduler)
	if err != nil {
		return nil, err
	}
	db.collections[cfg.Name] = col
	return col, nil
}

// GetCollection returns the named collection, or errs.ErrNotFound.
func (db *Database) GetCollection(name string) (*collection.Collection, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	col, ok := db.collections[name]
	if !ok {
		return nil, errs.New(errs.KindNotFound, "collection "+name)
	}
	return col, nil
}

// ListCollections returns the names of every open collection.
func (db *Database) ListCollections() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	return names
}

// Close flushes and closes every collection, stops the compaction
// scheduler, and releases the directory lock.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var firstErr error
	for _, col := range db.collections {
		if err := col.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if err := db.scheduler.Shutdown(); err != nil && firstErr == nil {
		firstErr = err
	}
	db.schedCtx()

	if err := db.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}

	registryMu.Lock()
	delete(registry, db.path)
	registryMu.Unlock()

	return firstErr
}
