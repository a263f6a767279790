package collection

import (
	"fmt"
	"time"
)

// ColumnStats summarizes one payload property across every live point:
// how many distinct values it takes and how many points lack it.
type ColumnStats struct {
	Distinct int
	Nulls    int
}

// CollectionStats is analyze()'s result, feeding the planner's
// selectivity estimates and giving operators a size/health snapshot.
type CollectionStats struct {
	RowCount     int
	DeletedCount int
	Columns      map[string]ColumnStats
	GraphNodes   int
	GraphEdges   int
	LastAnalyzed time.Time
}

// Analyze recomputes CollectionStats over the current live point set
// and refreshes the collection's cached point count and last-analyzed
// timestamp in config.json.
func (c *Collection) Analyze() (CollectionStats, error) {
	c.payloadsMu.RLock()
	payloads := make(map[uint64]map[string]any, len(c.payloads))
	for id, p := range c.payloads {
		payloads[id] = p
	}
	c.payloadsMu.RUnlock()

	seen := make(map[string]map[string]struct{})
	nulls := make(map[string]int)
	for _, payload := range payloads {
		for k, v := range payload {
			if seen[k] == nil {
				seen[k] = make(map[string]struct{})
			}
			seen[k][fmt.Sprintf("%v", v)] = struct{}{}
		}
	}
	for k := range seen {
		for _, payload := range payloads {
			if _, ok := payload[k]; !ok {
				nulls[k]++
			}
		}
	}

	columns := make(map[string]ColumnStats, len(seen))
	for k, vals := range seen {
		columns[k] = ColumnStats{Distinct: len(vals), Nulls: nulls[k]}
	}

	deleted := 0
	if c.vectors != nil {
		deleted = c.vectors.DeletedLen()
	}

	stats := CollectionStats{
		RowCount:     len(payloads),
		DeletedCount: deleted,
		Columns:      columns,
		GraphNodes:   c.graph.NodeCount(),
		GraphEdges:   c.graph.EdgeCount(),
		LastAnalyzed: analyzeClock(),
	}

	c.cfgMu.Lock()
	c.cfg.PointCount = stats.RowCount
	c.cfg.LastAnalyzed = stats.LastAnalyzed
	cfg := c.cfg
	c.cfgMu.Unlock()

	if err := writeConfig(c.path, cfg); err != nil {
		return stats, err
	}
	return stats, nil
}

// analyzeClock is a seam for tests; production always uses wall time.
var analyzeClock = time.Now
