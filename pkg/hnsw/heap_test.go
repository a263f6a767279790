package hnsw

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateHeapMinOrderPopsSmallestFirst(t *testing.T) {
	h := &candidateHeap{}
	heap.Init(h)
	for _, r := range []float32{5, 1, 3, 2, 4} {
		heap.Push(h, candidateItem{rank: r})
	}
	var popped []float32
	for h.Len() > 0 {
		popped = append(popped, heap.Pop(h).(candidateItem).rank)
	}
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, popped)
}

func TestCandidateHeapMaxOrderKeepsWorstAtTop(t *testing.T) {
	h := &candidateHeap{}
	heap.Init(h)
	for _, r := range []float32{5, 1, 3, 2, 4} {
		heap.Push(h, candidateItem{rank: r, isMax: true})
	}
	assert.Equal(t, float32(5), (*h)[0].rank)
}
