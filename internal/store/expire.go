/*
file: respd/internal/store/expire.go
*/
package store

import (
	"container/heap"
	"time"
)

// Expiry is one pending expiration record: key k, tag, is scheduled
// for removal at Deadline. The tag may no longer match the key's
// current incarnation by the time it is popped; the expire worker
// validates before acting.
type Expiry struct {
	Key      string
	Tag      uint64
	Deadline time.Time
}

// expiryHeap implements heap.Interface over Expiry records ordered by
// ascending Deadline, the idiomatic Go min-heap shape (the same one
// gazette's keyspace watcher uses for its own deadline-ordered heap).
type expiryHeap []Expiry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].Deadline.Before(h[j].Deadline) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(Expiry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ExpireIndex is the min-heap plus tag→deadline side map, plus the
// channel-based wakeup the expire worker waits on.
//
// A bounded, size-1 channel stands in for a hand-rolled single-slot
// waker: Push sends a non-blocking "recompute" signal when it inserts
// a strictly nearer deadline, and the expire worker selects on it
// alongside a deadline timer — simpler than a custom waker type and a
// natural fit for select-based cancellation.
type ExpireIndex struct {
	heap     expiryHeap
	deadline map[uint64]time.Time
	updateCh chan struct{}
}

// NewExpireIndex returns an empty ExpireIndex ready to push into.
func NewExpireIndex() *ExpireIndex {
	return &ExpireIndex{
		deadline: make(map[uint64]time.Time),
		updateCh: make(chan struct{}, 1),
	}
}

// Push records that tag (currently identifying key) should expire at
// deadline. If deadline is strictly nearer than the current heap head
// (or the heap was empty), the expire worker is woken so it can
// re-evaluate its wait against the new nearest deadline. Callers must
// hold the owning Store's Mu.
func (e *ExpireIndex) Push(key string, tag uint64, deadline time.Time) {
	var prevHead *time.Time
	if e.heap.Len() > 0 {
		t := e.heap[0].Deadline
		prevHead = &t
	}

	heap.Push(&e.heap, Expiry{Key: key, Tag: tag, Deadline: deadline})
	e.deadline[tag] = deadline

	if prevHead == nil || deadline.Before(*prevHead) {
		select {
		case e.updateCh <- struct{}{}:
		default:
			// a signal is already pending; the worker will observe
			// the new head once it wakes, no need to queue a second.
		}
	}
}

// TryPop removes and returns the head of the heap if its deadline has
// passed, or reports ok=false otherwise (nothing due yet). Callers
// must hold the owning Store's Mu.
func (e *ExpireIndex) TryPop(now time.Time) (exp Expiry, ok bool) {
	if e.heap.Len() == 0 {
		return Expiry{}, false
	}
	if e.heap[0].Deadline.After(now) {
		return Expiry{}, false
	}
	popped := heap.Pop(&e.heap).(Expiry)
	delete(e.deadline, popped.Tag)
	return popped, true
}

// GetExpiry reports the deadline currently pending for tag, if any.
// Callers must hold the owning Store's Mu.
func (e *ExpireIndex) GetExpiry(tag uint64) (time.Time, bool) {
	d, ok := e.deadline[tag]
	return d, ok
}

// NextDeadline reports the earliest pending deadline, if the heap is
// non-empty. Used by the expire worker to size its wakeup timer.
// Callers must hold the owning Store's Mu.
func (e *ExpireIndex) NextDeadline() (time.Time, bool) {
	if e.heap.Len() == 0 {
		return time.Time{}, false
	}
	return e.heap[0].Deadline, true
}

// UpdateCh is the channel the expire worker selects on alongside its
// deadline timer; a Push that moves the nearest deadline closer sends
// on it exactly once (non-blocking).
func (e *ExpireIndex) UpdateCh() <-chan struct{} {
	return e.updateCh
}
