// Package collection is VelesDB's facade: the single type embedders
// construct, joining vector storage, the HNSW index, text and property
// indexes, the graph store, and the query engine behind one
// thread-safe API. Every other pkg/* package is a component collection
// wires together; nothing outside this package owns more than one of
// them at a time.
package collection

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/cyberlife-coder/velesdb/internal/obslog"
	"github.com/cyberlife-coder/velesdb/internal/registry"
	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/internal/workerpool"
	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/exec"
	"github.com/cyberlife-coder/velesdb/pkg/fulltext"
	"github.com/cyberlife-coder/velesdb/pkg/graph"
	"github.com/cyberlife-coder/velesdb/pkg/guard"
	"github.com/cyberlife-coder/velesdb/pkg/hnsw"
	"github.com/cyberlife-coder/velesdb/pkg/planner"
	"github.com/cyberlife-coder/velesdb/pkg/propindex"
	"github.com/cyberlife-coder/velesdb/pkg/storage"
	"github.com/cyberlife-coder/velesdb/pkg/velesql"
)

const (
	vectorsFile   = "vectors.dat"
	hnswPrefix    = "hnsw_index"
	textIndexDir  = "text_index"
	payloadsFile  = "payloads.json"
	graphSnapshot = "graph/snapshot.json"
)

// Collection is VelesDB's unit of storage: a named, dimensioned,
// metric-typed set of points, backed by one directory on disk. All
// public methods are safe for concurrent use.
type Collection struct {
	path string

	cfgMu sync.RWMutex // guards cfg only, held briefly, never nested under the locks below
	cfg   Config

	metric distance.Metric
	pool   *workerpool.Pool
	logger obslog.Logger

	vectors *storage.Store // nil for metadata-only (dimension 0) collections
	index   *hnsw.Graph    // nil for metadata-only collections
	text    *fulltext.Index
	textDB  *badger.DB
	props   *propindex.PropertyIndex
	ranges  *propindex.RangeIndex
	graph   *graph.Store

	payloadsMu sync.RWMutex
	payloads   map[uint64]map[string]any

	graphMu    sync.RWMutex
	graphNodes map[uint64]graphNodeDoc
	graphEdges map[uint64]graphEdgeDoc

	cache    *velesql.QueryCache
	planner  *planner.Planner
	executor *exec.Executor

	queries *registry.Registry
	limiter *guard.Limiter
	breaker *guard.Breaker

	closed bool
}

// Options configures Create and Open beyond the on-disk default.
type Options struct {
	QueryCacheSize int
	QueryCacheTTL  time.Duration
	RateLimit      guard.RateLimit
	Pool           workerpool.Config
}

// DefaultOptions mirrors the documented configuration defaults.
func DefaultOptions() Options {
	return Options{
		QueryCacheSize: 256,
		QueryCacheTTL:  time.Minute,
		RateLimit:      guard.RateLimit{RatePerSecond: 1000, Burst: 2000},
		Pool:           workerpool.DefaultConfig(),
	}
}

// Create makes a fresh collection directory at path for dim-dimensional
// vectors under metric. dim may be 0 for a metadata-only collection
// that stores payloads and graph structure without an ANN index.
func Create(path string, dim int, metric distance.Metric, opts Options) (*Collection, error) {
	if _, err := os.Stat(configPath(path)); err == nil {
		return nil, verr.New(verr.KindCollectionExists, "collection already exists at %s", path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, verr.Wrap(verr.KindIO, err, "create collection directory %s", path)
	}

	cfg := DefaultConfig(dim, metric)
	if err := writeConfig(path, cfg); err != nil {
		return nil, err
	}
	return openWith(path, cfg, opts, true)
}

// Open loads an existing collection from path.
func Open(path string, opts Options) (*Collection, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	return openWith(path, cfg, opts, false)
}

func openWith(path string, cfg Config, opts Options, fresh bool) (*Collection, error) {
	logger := obslog.Default()
	pool := workerpool.New(opts.Pool)

	c := &Collection{
		path:     path,
		cfg:      cfg,
		metric:   cfg.metric(),
		pool:     pool,
		logger:   logger,
		props:    propindex.New(),
		ranges:   propindex.NewRange(),
		graph:    graph.NewStore(),
		payloads: make(map[uint64]map[string]any),
		graphNodes: make(map[uint64]graphNodeDoc),
		graphEdges: make(map[uint64]graphEdgeDoc),
		cache:    velesql.NewQueryCache(opts.QueryCacheSize, opts.QueryCacheTTL),
		queries:  registry.New(),
		limiter:  guard.NewLimiter(opts.RateLimit),
		breaker:  guard.NewBreaker(guard.BreakerConfig{}),
	}

	if cfg.Dimension > 0 {
		vecPath := filepath.Join(path, vectorsFile)
		store, err := storage.Open(vecPath, cfg.Dimension)
		if err != nil {
			return nil, verr.Wrap(verr.KindIO, err, "open vector storage")
		}
		c.vectors = store

		hcfg := hnsw.Config{
			M:                     cfg.HNSWM,
			EfConstruction:        cfg.EfConstruct,
			Quality:               hnsw.Balanced,
			EfSearch:              cfg.EfSearch,
			Metric:                c.metric,
			ReindexThresholdRatio: cfg.AutoReindex.Threshold,
			ReindexCooldown:       cfg.AutoReindex.Cooldown,
		}
		prefix := filepath.Join(path, hnswPrefix)
		if !fresh {
			if idx, err := hnsw.Load(prefix); err == nil {
				c.index = idx
			}
		}
		if c.index == nil {
			c.index = hnsw.New(cfg.Dimension, hcfg, pool)
		}
	}

	textDir := filepath.Join(path, textIndexDir)
	db, err := fulltext.OpenStore(textDir, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.textDB = db
	if !fresh {
		if idx, err := fulltext.Load(db); err == nil {
			c.text = idx
		}
	}
	if c.text == nil {
		c.text = fulltext.NewIndex()
	}

	if !fresh {
		c.loadPayloads()
		c.loadGraphSnapshot()
	}

	c.planner = planner.New(c)
	c.executor = exec.New(c, c.metric)

	return c, nil
}

func (c *Collection) hnswPathPrefix() string { return filepath.Join(c.path, hnswPrefix) }

// Close flushes pending writes and releases every mmap and file handle
// the collection holds. Safe to call more than once.
func (c *Collection) Close() error {
	c.cfgMu.Lock()
	if c.closed {
		c.cfgMu.Unlock()
		return nil
	}
	c.closed = true
	c.cfgMu.Unlock()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if c.index != nil {
		record(c.index.Dump(c.hnswPathPrefix()))
		record(c.index.Close())
	}
	if c.vectors != nil {
		record(c.vectors.Close())
	}
	if c.text != nil && c.textDB != nil {
		record(c.text.Persist(c.textDB))
	}
	if c.textDB != nil {
		record(c.textDB.Close())
	}
	record(c.persistPayloads())
	record(c.persistGraphSnapshot())
	c.pool.Close()
	return firstErr
}

// Flush persists every in-memory write to disk without compacting.
func (c *Collection) Flush() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.vectors != nil {
		record(c.vectors.Flush())
	}
	if c.index != nil {
		record(c.index.Dump(c.hnswPathPrefix()))
	}
	if c.text != nil && c.textDB != nil {
		record(c.text.Persist(c.textDB))
	}
	record(c.persistPayloads())
	record(c.persistGraphSnapshot())
	if firstErr != nil {
		return verr.Wrap(verr.KindIO, firstErr, "flush collection")
	}
	return nil
}

// Compact reclaims space occupied by soft-deleted vectors. Blocks
// concurrent vector reads/writes for its duration; other indexes are
// untouched since they drop entries eagerly on delete.
func (c *Collection) Compact() error {
	if c.vectors == nil {
		return nil
	}
	if err := c.vectors.Compact(); err != nil {
		return verr.Wrap(verr.KindIO, err, "compact vector storage")
	}
	return nil
}

// FlushAsync and CompactAsync dispatch their synchronous counterparts
// onto the collection's worker pool, for callers on a cooperative
// scheduler that must never block their own goroutine.
func (c *Collection) FlushAsync(ctx context.Context) error   { return c.pool.Run(ctx, c.Flush) }
func (c *Collection) CompactAsync(ctx context.Context) error { return c.pool.Run(ctx, c.Compact) }

func (c *Collection) loadPayloads() {
	raw, err := os.ReadFile(filepath.Join(c.path, payloadsFile))
	if err != nil {
		return
	}
	var decoded map[uint64]map[string]any
	if json.Unmarshal(raw, &decoded) == nil {
		c.payloadsMu.Lock()
		c.payloads = decoded
		c.payloadsMu.Unlock()
		for id, payload := range decoded {
			c.indexPayload(id, payload)
		}
	}
}

func (c *Collection) persistPayloads() error {
	c.payloadsMu.RLock()
	raw, err := json.Marshal(c.payloads)
	c.payloadsMu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.path, payloadsFile), raw, 0o644)
}

func (c *Collection) loadGraphSnapshot() {
	raw, err := os.ReadFile(filepath.Join(c.path, graphSnapshot))
	if err != nil {
		return
	}
	var snap graphSnapshotDoc
	if json.Unmarshal(raw, &snap) != nil {
		return
	}
	c.graphMu.Lock()
	defer c.graphMu.Unlock()
	for _, n := range snap.Nodes {
		c.graph.AddNode(n.ID, n.Label, n.Properties, n.Embedding)
		c.graphNodes[n.ID] = n
	}
	for _, e := range snap.Edges {
		if _, err := c.graph.AddEdge(e.ID, e.SourceID, e.TargetID, e.Label, e.Properties); err == nil {
			c.graphEdges[e.ID] = e
		}
	}
}

func (c *Collection) persistGraphSnapshot() error {
	dir := filepath.Join(c.path, "graph")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	c.graphMu.RLock()
	snap := graphSnapshotDoc{
		Nodes: make([]graphNodeDoc, 0, len(c.graphNodes)),
		Edges: make([]graphEdgeDoc, 0, len(c.graphEdges)),
	}
	for _, n := range c.graphNodes {
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, e := range c.graphEdges {
		snap.Edges = append(snap.Edges, e)
	}
	c.graphMu.RUnlock()
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.path, graphSnapshot), raw, 0o644)
}

type graphSnapshotDoc struct {
	Nodes []graphNodeDoc `json:"nodes"`
	Edges []graphEdgeDoc `json:"edges"`
}

type graphNodeDoc struct {
	ID         uint64         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
	Embedding  []float32      `json:"embedding,omitempty"`
}

type graphEdgeDoc struct {
	ID         uint64         `json:"id"`
	SourceID   uint64         `json:"source_id"`
	TargetID   uint64         `json:"target_id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}
