package indexer

import "sync"

// IndexLock tracks which project roots are being indexed. Different roots
// may be indexed at the same time; a second run on the same root is refused.
type IndexLock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// TryAcquire marks root as being indexed without blocking. It returns false
// when a run on root is already active.
func (l *IndexLock) TryAcquire(root string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active == nil {
		l.active = make(map[string]struct{})
	}
	if _, busy := l.active[root]; busy {
		return false
	}
	l.active[root] = struct{}{}
	return true
}

// Release ends the run on root
func (l *IndexLock) Release(root string) {
	l.mu.Lock()
	delete(l.active, root)
	l.mu.Unlock()
}

// Held reports whether a run on root is active
func (l *IndexLock) Held(root string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.active[root]
	return busy
}
