package collection

import (
	"github.com/cyberlife-coder/velesdb/internal/verr"
)

const pointLabel = "point"

// Point is the unit of storage: an id, a vector (possibly empty for a
// metadata-only collection), and an optional JSON-shaped payload.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload map[string]any
}

// Upsert inserts or fully replaces points one at a time. Each point is
// atomic: if it fails, nothing about it is left behind, but prior
// points in the same call already committed stay committed. Returns
// the count that succeeded.
func (c *Collection) Upsert(points []Point) (int, error) {
	n, _, err := c.upsertPrefix(points)
	return n, err
}

// UpsertBulk is Upsert's bulk-import entry point: it reserves vector
// storage capacity up front so a large batch doesn't remap on every
// point. On partial failure it returns the count that succeeded and
// the id of the first point that failed.
func (c *Collection) UpsertBulk(points []Point) (int, uint64, error) {
	if c.vectors != nil {
		c.vectors.ReserveCapacity(len(points))
	}
	return c.upsertPrefix(points)
}

func (c *Collection) upsertPrefix(points []Point) (int, uint64, error) {
	for i, p := range points {
		if err := c.upsertOne(p); err != nil {
			return i, p.ID, err
		}
	}
	return len(points), 0, nil
}

func (c *Collection) upsertOne(p Point) error {
	if c.cfg.Dimension == 0 && len(p.Vector) > 0 {
		return verr.New(verr.KindVectorNotAllowed, "collection %s is metadata-only", c.path)
	}
	if c.cfg.Dimension > 0 && len(p.Vector) != c.cfg.Dimension {
		return verr.DimensionMismatch("upsert", c.cfg.Dimension, len(p.Vector))
	}

	if c.vectors != nil && len(p.Vector) > 0 {
		var old []float32
		if existing, err := c.vectors.Get(p.ID); err == nil {
			old = append([]float32(nil), existing.Vector()...)
			existing.Release()
			c.vectors.Delete(p.ID)
			c.index.Delete(p.ID)
		}
		restore := func() {
			if old != nil {
				_ = c.vectors.Store(p.ID, old)
				_ = c.index.Insert(p.ID, old)
			}
		}
		if err := c.vectors.Store(p.ID, p.Vector); err != nil {
			restore()
			return verr.Wrap(verr.KindStorage, err, "store vector %d", p.ID)
		}
		if err := c.index.Insert(p.ID, p.Vector); err != nil {
			c.vectors.Delete(p.ID)
			restore()
			return verr.Wrap(verr.KindIndex, err, "index vector %d", p.ID)
		}
	}

	c.deindexPayload(p.ID)
	c.payloadsMu.Lock()
	c.payloads[p.ID] = p.Payload
	c.payloadsMu.Unlock()
	c.indexPayload(p.ID, p.Payload)

	c.cfgMu.Lock()
	c.cfg.PointCount = len(c.payloads)
	c.cfgMu.Unlock()
	return nil
}

// Get returns the points named by ids, in order, with a zero Point (ID
// 0, nil Vector and Payload) at a position whose id no longer exists
// rather than returning an error: a missing point is an expected
// outcome, not a control-flow fault.
func (c *Collection) Get(ids []uint64) []Point {
	out := make([]Point, len(ids))
	for i, id := range ids {
		payload, ok := c.Payload(id)
		if !ok {
			continue
		}
		var vec []float32
		if v, ok := c.VectorOf(id); ok {
			vec = append([]float32(nil), v...)
		}
		out[i] = Point{ID: id, Vector: vec, Payload: payload}
	}
	return out
}

// Delete removes ids from every index the collection maintains: vector
// storage, HNSW, text and property/range indexes, and (if present) the
// graph store, cascading to the node's edges.
func (c *Collection) Delete(ids []uint64) {
	for _, id := range ids {
		if c.vectors != nil {
			c.vectors.Delete(id)
		}
		if c.index != nil {
			c.index.Delete(id)
		}
		c.deindexPayload(id)
		c.payloadsMu.Lock()
		delete(c.payloads, id)
		c.payloadsMu.Unlock()

		c.graphMu.Lock()
		if _, ok := c.graphNodes[id]; ok {
			c.graph.DeleteNode(id)
			delete(c.graphNodes, id)
			for eid, e := range c.graphEdges {
				if e.SourceID == id || e.TargetID == id {
					delete(c.graphEdges, eid)
				}
			}
		}
		c.graphMu.Unlock()
	}
	c.cfgMu.Lock()
	c.cfg.PointCount = len(c.payloads)
	c.cfgMu.Unlock()
}

func (c *Collection) indexPayload(id uint64, payload map[string]any) {
	if payload == nil {
		return
	}
	for k, v := range payload {
		c.props.Add(pointLabel, k, v, id)
		if isOrderable(v) {
			c.ranges.Add(pointLabel, k, v, id)
		}
	}
	if text, ok := payload["text"].(string); ok {
		c.text.Add(id, text)
	}
}

func (c *Collection) deindexPayload(id uint64) {
	c.payloadsMu.RLock()
	payload := c.payloads[id]
	c.payloadsMu.RUnlock()
	if payload == nil {
		return
	}
	for k, v := range payload {
		c.props.Remove(pointLabel, k, v, id)
		if isOrderable(v) {
			c.ranges.Remove(pointLabel, k, v, id)
		}
	}
	if _, ok := payload["text"]; ok {
		c.text.Remove(id)
	}
}

func isOrderable(v any) bool {
	switch v.(type) {
	case int, int64, float64, float32, string:
		return true
	default:
		return false
	}
}
