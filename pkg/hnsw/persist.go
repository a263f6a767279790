package hnsw

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/storage"
	"github.com/cyberlife-coder/velesdb/pkg/storage/shard"
)

// Persistence splits a saved graph into three files, matching the
// data-file/structure-file/mapping-table split: pathPrefix+".data" is
// the fixed-stride vector table (memory-mapped, read back as zero-copy
// views into the mapping so Load never copies vector payloads),
// pathPrefix+".struct" holds per-node levels and adjacency lists, and
// pathPrefix+".map" holds the external<->internal id table and the
// next-index allocator cursor.
const (
	graphMagic   uint32 = 0x564e4853 // "VNHS"
	graphVersion uint32 = 1
)

func dataPath(prefix string) string   { return prefix + ".data" }
func structPath(prefix string) string { return prefix + ".struct" }
func mapPath(prefix string) string    { return prefix + ".map" }

// Dump persists the graph to the three files rooted at pathPrefix.
func (g *Graph) Dump(pathPrefix string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodeCount := len(g.nodes)

	region, err := storage.OpenMappedRegion(dataPath(pathPrefix), nodeCount*g.dim*4)
	if err != nil {
		return fmt.Errorf("hnsw: open data file: %w", err)
	}
	defer region.Close()
	buf := region.Bytes()

	sf, err := os.Create(structPath(pathPrefix))
	if err != nil {
		return fmt.Errorf("hnsw: create struct file: %w", err)
	}
	defer sf.Close()
	w := bufio.NewWriter(sf)

	writeHeader(w, g, nodeCount)

	for idx := uint64(0); idx < uint64(nodeCount); idx++ {
		n := g.nodes[idx]
		if n == nil {
			writeUint32(w, 0) // level 0, no neighbor layers
			continue
		}
		copy(buf[idx*uint64(g.dim)*4:], storage.UnsafeFloat32ToBytesView(n.vector))
		writeUint32(w, uint32(n.level))
		for l := 0; l <= n.level; l++ {
			neighbors := n.neighbors[l]
			writeUint32(w, uint32(len(neighbors)))
			for _, nb := range neighbors {
				writeUint64(w, nb)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("hnsw: flush struct file: %w", err)
	}
	if err := region.Sync(); err != nil {
		return fmt.Errorf("hnsw: sync data file: %w", err)
	}

	return dumpMappings(mapPath(pathPrefix), g.mappings)
}

func writeHeader(w *bufio.Writer, g *Graph, nodeCount int) {
	writeUint32(w, graphMagic)
	writeUint32(w, graphVersion)
	writeUint32(w, uint32(g.dim))
	writeUint32(w, uint32(g.cfg.Metric))
	writeUint32(w, uint32(g.cfg.M))
	writeUint32(w, uint32(g.cfg.EfConstruction))
	if g.hasEntry {
		writeUint32(w, 1)
	} else {
		writeUint32(w, 0)
	}
	writeUint64(w, g.entryPoint)
	writeUint32(w, uint32(g.maxLevel))
	writeUint64(w, uint64(nodeCount))
}

func writeUint32(w *bufio.Writer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func writeUint64(w *bufio.Writer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func dumpMappings(path string, m *shard.Mappings) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("hnsw: create mappings file: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	writeUint64(w, m.NextIndex())
	pairs := m.All()
	writeUint64(w, uint64(len(pairs)))
	for ext, idx := range pairs {
		writeUint64(w, ext)
		writeUint64(w, idx)
	}
	return w.Flush()
}

// Load reconstructs a Graph from files previously written by Dump. The
// returned Graph's node vectors are zero-copy views into the
// memory-mapped data file: the Graph keeps that mapping open for as
// long as it exists, and Close must be called to release it — dropping
// the node map before unmapping, per the "mapping holder outlives the
// graph" contract (see Graph.Close).
func Load(pathPrefix string) (*Graph, error) {
	sf, err := os.Open(structPath(pathPrefix))
	if err != nil {
		return nil, fmt.Errorf("hnsw: open struct file: %w", err)
	}
	defer sf.Close()
	r := bufio.NewReader(sf)

	dim, metric, m, efConstruction, hasEntry, entryPoint, maxLevel, nodeCount, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	region, err := storage.OpenMappedRegion(dataPath(pathPrefix), int(nodeCount)*dim*4)
	if err != nil {
		return nil, fmt.Errorf("hnsw: open data file: %w", err)
	}
	buf := region.Bytes()

	cfg := Config{M: m, EfConstruction: efConstruction, Metric: distance.Metric(metric)}
	g := New(dim, cfg, nil)
	g.dataRegion = region
	g.hasEntry = hasEntry
	g.entryPoint = entryPoint
	g.maxLevel = maxLevel

	for idx := uint64(0); idx < nodeCount; idx++ {
		level, err := readUint32(r)
		if err != nil {
			region.Close()
			return nil, fmt.Errorf("hnsw: read node %d level: %w", idx, err)
		}
		vec := storage.UnsafeBytesToFloat32View(buf[idx*uint64(dim)*4 : (idx+1)*uint64(dim)*4])
		n := &node{vector: vec, level: int(level), neighbors: make([][]uint64, level+1)}
		for l := uint32(0); l <= level; l++ {
			count, err := readUint32(r)
			if err != nil {
				region.Close()
				return nil, fmt.Errorf("hnsw: read node %d layer %d count: %w", idx, l, err)
			}
			layer := make([]uint64, count)
			for i := range layer {
				v, err := readUint64(r)
				if err != nil {
					region.Close()
					return nil, fmt.Errorf("hnsw: read node %d layer %d neighbor: %w", idx, l, err)
				}
				layer[i] = v
			}
			n.neighbors[l] = layer
		}
		g.nodes[idx] = n
	}

	if err := loadMappings(mapPath(pathPrefix), g.mappings); err != nil {
		region.Close()
		return nil, err
	}
	g.incLive(int64(g.mappings.Len()))
	g.incDeleted(int64(nodeCount) - int64(g.mappings.Len()))
	return g, nil
}

func readHeader(r *bufio.Reader) (dim, metric, m, efConstruction int, hasEntry bool, entryPoint uint64, maxLevel int, nodeCount uint64, err error) {
	magic, err := readUint32(r)
	if err != nil {
		return
	}
	if magic != graphMagic {
		err = fmt.Errorf("hnsw: bad magic %x", magic)
		return
	}
	if _, err = readUint32(r); err != nil { // version, unused for now
		return
	}
	var v uint32
	if v, err = readUint32(r); err != nil {
		return
	}
	dim = int(v)
	if v, err = readUint32(r); err != nil {
		return
	}
	metric = int(v)
	if v, err = readUint32(r); err != nil {
		return
	}
	m = int(v)
	if v, err = readUint32(r); err != nil {
		return
	}
	efConstruction = int(v)
	if v, err = readUint32(r); err != nil {
		return
	}
	hasEntry = v != 0
	if entryPoint, err = readUint64(r); err != nil {
		return
	}
	if v, err = readUint32(r); err != nil {
		return
	}
	maxLevel = int(v)
	nodeCount, err = readUint64(r)
	return
}

func readUint32(r *bufio.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r *bufio.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func loadMappings(path string, m *shard.Mappings) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hnsw: open mappings file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	nextIdx, err := readUint64(r)
	if err != nil {
		return fmt.Errorf("hnsw: read mappings next index: %w", err)
	}
	count, err := readUint64(r)
	if err != nil {
		return fmt.Errorf("hnsw: read mappings count: %w", err)
	}
	pairs := make(map[uint64]uint64, count)
	for i := uint64(0); i < count; i++ {
		ext, err := readUint64(r)
		if err != nil {
			return fmt.Errorf("hnsw: read mapping %d ext: %w", i, err)
		}
		idx, err := readUint64(r)
		if err != nil {
			return fmt.Errorf("hnsw: read mapping %d idx: %w", i, err)
		}
		pairs[ext] = idx
	}
	m.RestoreAll(pairs)
	m.SetNextIndex(nextIdx)
	return nil
}

// Close releases resources held by a Graph loaded from disk. Node
// vectors that alias the memory-mapped data file are dropped first so
// nothing can observe unmapped memory through a stale slice, then the
// mapping itself is closed — the "mapping holder outlives the graph"
// contract's enforcement point. A Graph built with New rather than Load
// has no backing region and Close is a no-op.
func (g *Graph) Close() error {
	g.mu.Lock()
	region := g.dataRegion
	g.dataRegion = nil
	g.nodes = nil
	g.mu.Unlock()
	if region == nil {
		return nil
	}
	return region.Close()
}
