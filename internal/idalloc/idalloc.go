// Package idalloc provides monotonic id allocation for object and
// handle namespaces. Ids are never reused while their owner is alive,
// so a plain counter suffices.
package idalloc

type Allocator struct {
	next uint32
}

// New returns an Allocator whose first allocated id is start.
func New(start uint32) *Allocator {
	return &Allocator{next: start}
}

// Allocate returns a fresh id. It is not safe for concurrent use;
// callers hold their own lock.
func (a *Allocator) Allocate() uint32 {
	id := a.next
	a.next++
	return id
}
