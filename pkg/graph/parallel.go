package graph

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// defaultParallelThreshold is how many start nodes must be supplied
// before ParallelTraverse fans work out across goroutines instead of
// running each start sequentially.
const defaultParallelThreshold = 4

// ParallelTraverse runs BFS/DFS from every node in starts, in parallel
// once len(starts) reaches threshold (pass 0 to use the default), and
// merges the results, dropping duplicates that share a path signature:
// a hash of (start, target, edge-id sequence). Two different start
// nodes can legitimately reach the same target by the same edge path
// only in malformed graphs, but two overlapping start sets commonly
// rediscover the same path, which this dedups away.
func ParallelTraverse(store *EdgeStore, starts []uint64, mode TraversalMode, opts TraversalOptions, threshold int) ([]TraversalResult, error) {
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}

	type perStart struct {
		start   uint64
		results []TraversalResult
		err     error
	}

	runs := make([]perStart, len(starts))

	if len(starts) < threshold {
		for i, s := range starts {
			results, err := Walk(store, s, mode, opts)
			runs[i] = perStart{start: s, results: results, err: err}
		}
	} else {
		var wg sync.WaitGroup
		wg.Add(len(starts))
		for i, s := range starts {
			go func(i int, s uint64) {
				defer wg.Done()
				results, err := Walk(store, s, mode, opts)
				runs[i] = perStart{start: s, results: results, err: err}
			}(i, s)
		}
		wg.Wait()
	}

	seen := make(map[[32]byte]struct{})
	var merged []TraversalResult
	for _, run := range runs {
		if run.err != nil {
			return nil, run.err
		}
		for _, r := range run.results {
			sig := pathSignature(run.start, r)
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			merged = append(merged, r)
		}
	}
	return merged, nil
}

func pathSignature(start uint64, r TraversalResult) [32]byte {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], start)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], r.TargetID)
	h.Write(buf[:])
	for _, edgeID := range r.Path {
		binary.BigEndian.PutUint64(buf[:], edgeID)
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
