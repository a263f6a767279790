package hnsw

import "container/heap"

// candidateItem is one entry in a beam-search heap: an internal node
// index and its rank (smaller is always closer, regardless of metric —
// see rank in score.go). The same item type backs both the min-heap of
// unexplored candidates and the max-heap of current best results,
// distinguished by isMax.
type candidateItem struct {
	idx   uint64
	rank  float32
	isMax bool
}

// candidateHeap is a container/heap.Interface that behaves as a min-heap
// when isMax is false (used for the frontier still to explore) and a
// max-heap when isMax is true (used to track the ef worst-so-far
// results, so the single worst is always at index 0 and cheap to pop
// when a better candidate is found).
type candidateHeap []candidateItem

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].isMax {
		return h[i].rank > h[j].rank
	}
	return h[i].rank < h[j].rank
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(candidateItem))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

var _ heap.Interface = (*candidateHeap)(nil)
