// Package hnsw implements VelesDB's approximate nearest-neighbor index:
// a hierarchical navigable small world graph over external u64 point
// ids, searchable under any of pkg/distance's five metrics.
//
// The graph shape is classic HNSW: per-layer neighbor lists, a single
// entry point, greedy descent followed by a bounded beam search at
// layer 0. Ids are externally-supplied u64s resolved through
// pkg/storage/shard.Mappings rather than held directly on each node,
// and neighbor selection uses a diversity-preserving heuristic instead
// of a plain top-M sort, so a cluster of near-duplicate points doesn't
// crowd out every other direction from a node's neighbor list.
package hnsw

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cyberlife-coder/velesdb/internal/workerpool"
	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/storage"
	"github.com/cyberlife-coder/velesdb/pkg/storage/shard"
)

// Quality selects the runtime candidate-pool width (ef_search) for a
// query, trading recall for latency.
type Quality int

const (
	Fast Quality = iota
	Balanced
	Accurate
	HighRecall
	Perfect
)

// efSearchByQuality maps each quality tier to its candidate-pool width.
// maxEfSearch (800) is not itself a quality tier — it is the hard
// ceiling applied to any explicit ef_search override, so a caller
// cannot force a beam search wide enough to turn the index into an
// accidental brute-force scan.
var efSearchByQuality = map[Quality]int{
	Fast:       16,
	Balanced:   64,
	Accurate:   128,
	HighRecall: 200,
	Perfect:    400,
}

const maxEfSearch = 800

// EfSearch returns the candidate-pool width for q, defaulting to
// Balanced's width for an unrecognized value.
func (q Quality) EfSearch() int {
	if ef, ok := efSearchByQuality[q]; ok {
		return ef
	}
	return efSearchByQuality[Balanced]
}

func (q Quality) String() string {
	switch q {
	case Fast:
		return "fast"
	case Accurate:
		return "accurate"
	case HighRecall:
		return "high_recall"
	case Perfect:
		return "perfect"
	default:
		return "balanced"
	}
}

// Config parameterizes a Graph.
type Config struct {
	// M is the max neighbors per node per layer above layer 0.
	M int
	// EfConstruction is the beam width used while inserting.
	EfConstruction int
	// Quality picks the default ef_search for Search when EfSearch is 0.
	Quality Quality
	// EfSearch overrides Quality's width when nonzero. Clamped to
	// maxEfSearch.
	EfSearch int
	// Metric selects the distance/similarity function the graph is
	// built and searched under.
	Metric distance.Metric
	// LevelMultiplier is mL in the HNSW paper's level-sampling formula,
	// 1/ln(M) when left zero.
	LevelMultiplier float64
	// ReindexThresholdRatio triggers a background rebuild once
	// optimalM(live)/M reaches this ratio. Zero disables auto-reindex.
	ReindexThresholdRatio float64
	// ReindexCooldown is the minimum time between reindex attempts.
	ReindexCooldown time.Duration
}

// DefaultConfig returns the classic HNSW parameter set (M=16,
// ef_construction=200) for metric.
func DefaultConfig(metric distance.Metric) Config {
	m := 16
	return Config{
		M:                     m,
		EfConstruction:        200,
		Quality:               Balanced,
		Metric:                metric,
		LevelMultiplier:       1 / math.Log(float64(m)),
		ReindexThresholdRatio: 1.5,
		ReindexCooldown:       5 * time.Minute,
	}
}

// mmax0 is the ground-layer (layer 0) neighbor cap, double the cap used
// on every layer above it — dense connectivity at the base layer is
// what keeps recall high once a search beam drops to layer 0.
func (c Config) mmax0() int { return c.M * 2 }

func (c Config) efSearch() int {
	ef := c.EfSearch
	if ef == 0 {
		ef = c.Quality.EfSearch()
	}
	if ef > maxEfSearch {
		ef = maxEfSearch
	}
	if ef < 1 {
		ef = 1
	}
	return ef
}

// node is one point in the graph, addressed by its internal index.
type node struct {
	vector    []float32
	level     int
	neighbors [][]uint64 // neighbors[layer] = internal indices
	mu        sync.RWMutex
}

// Graph is a hierarchical navigable small world index over u64 point
// ids. The zero value is not usable; construct with New.
type Graph struct {
	cfg Config
	dim int

	mappings *shard.Mappings
	pool     *workerpool.Pool

	mu         sync.RWMutex // guards nodes, entryPoint, hasEntry, maxLevel
	nodes      map[uint64]*node
	entryPoint uint64
	hasEntry   bool
	maxLevel   int

	liveCount    int64
	deletedCount int64
	countMu      sync.Mutex

	reindexer *Reindexer

	// dataRegion is non-nil only for a Graph returned by Load: the
	// memory-mapped vector data file that every node.vector aliases.
	dataRegion *storage.MappedRegion
}

// New creates an empty Graph over dim-dimensional vectors. pool may be
// nil, in which case ParallelInsert falls back to a sequential loop.
func New(dim int, cfg Config, pool *workerpool.Pool) *Graph {
	if cfg.M <= 0 {
		cfg = DefaultConfig(cfg.Metric)
	}
	if cfg.LevelMultiplier == 0 {
		cfg.LevelMultiplier = 1 / math.Log(float64(cfg.M))
	}
	g := &Graph{
		cfg:      cfg,
		dim:      dim,
		mappings: shard.NewMappings(),
		pool:     pool,
		nodes:    make(map[uint64]*node),
	}
	g.reindexer = newReindexer(cfg.ReindexThresholdRatio, cfg.ReindexCooldown, cfg.M)
	return g
}

// Dimension returns the vector width the graph was built for.
func (g *Graph) Dimension() int { return g.dim }

// Metric returns the distance/similarity function the graph searches
// under.
func (g *Graph) Metric() distance.Metric { return g.cfg.Metric }

// Len returns the number of live (non-deleted) points.
func (g *Graph) Len() int {
	g.countMu.Lock()
	defer g.countMu.Unlock()
	return int(g.liveCount)
}

// DeletedLen returns the number of soft-deleted points still occupying
// graph storage.
func (g *Graph) DeletedLen() int {
	g.countMu.Lock()
	defer g.countMu.Unlock()
	return int(g.deletedCount)
}

func (g *Graph) incLive(delta int64) {
	g.countMu.Lock()
	g.liveCount += delta
	g.countMu.Unlock()
}

func (g *Graph) incDeleted(delta int64) {
	g.countMu.Lock()
	g.deletedCount += delta
	g.countMu.Unlock()
}

// Result is one scored match from Search.
type Result struct {
	ID    uint64
	Score float32
}

// SetSearchingMode changes the quality tier Search uses by default when
// called without an explicit override, without needing a new Graph.
func (g *Graph) SetSearchingMode(q Quality) {
	g.mu.Lock()
	g.cfg.Quality = q
	g.mu.Unlock()
}

// Backend is the interface VelesDB's query layer programs against,
// satisfied by Graph (the only implementation in this codebase) and
// left open for an alternative index backend to plug in behind the same
// search/insert/persistence surface.
type Backend interface {
	Search(ctx context.Context, query []float32, k int, q Quality) ([]Result, error)
	Insert(id uint64, vec []float32) error
	ParallelInsert(ctx context.Context, ids []uint64, vecs [][]float32) error
	SetSearchingMode(q Quality)
	Dump(pathPrefix string) error
	Close() error
}

var _ Backend = (*Graph)(nil)
