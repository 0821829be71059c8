package registry

import "container/heap"

// freeList is a min-heap of released arena slot indices. Slots are reused
// lowest index first, which keeps the arena dense after bursts of frees.
//
// Time Complexity:
//   - O(log n) for push and pop
//   - O(1) for len
//
// Concurrency Considerations:
//   - not thread-safe, the registry guards it with its arena lock
type freeList struct {
	items indexHeap
}

func newFreeList() *freeList {
	fl := &freeList{}
	heap.Init(&fl.items)
	return fl
}

// push marks a slot as free
func (fl *freeList) push(index uint32) {
	heap.Push(&fl.items, index)
}

// pop returns the lowest free slot
func (fl *freeList) pop() (uint32, bool) {
	if fl.items.Len() == 0 {
		return 0, false
	}
	return heap.Pop(&fl.items).(uint32), true
}

func (fl *freeList) len() int {
	return fl.items.Len()
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

type indexHeap []uint32

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *indexHeap) Push(x any) {
	*h = append(*h, x.(uint32))
}

func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
