package stackitem

import "github.com/neo-project/neo-sub032/errors"

// RefCounter tracks the number of item references held by
// evaluation stacks, slots and containers of one engine.
//
// Primitive items only contribute to the total. Containers are
// additionally tracked so that a container whose last stack or slot
// reference goes away stops contributing its elements once it is
// unreachable, even when containers reference each other in cycles.
//
// A nil *RefCounter is valid and counts nothing.
type RefCounter struct {
	count   int
	limit   int
	tracked map[container]struct{}

	// dirty is set when a tracked container may have
	// become unreachable.
	dirty bool
}

// container is implemented by *Array, *Struct and *Map.
type container interface {
	Item
	refState() *refState
	subItems(visit func(Item))
	subCount() int
}

type refState struct {
	rc    *RefCounter
	stack int
}

// NewRefCounter returns a counter that refuses container growth
// beyond limit references. A limit of zero or less is unbounded.
func NewRefCounter(limit int) *RefCounter {
	return &RefCounter{
		limit:   limit,
		tracked: make(map[container]struct{}),
	}
}

// Count returns the current number of references, including
// references held by unreachable containers that have not yet
// been collected by CheckZeroReferred.
func (rc *RefCounter) Count() int {
	if rc == nil {
		return 0
	}
	return rc.count
}

// Limit returns the configured ceiling.
func (rc *RefCounter) Limit() int {
	if rc == nil {
		return 0
	}
	return rc.limit
}

// AddStackRef records a reference to it from a stack or slot.
func (rc *RefCounter) AddStackRef(it Item) {
	if rc == nil {
		return
	}
	rc.count++
	if c, ok := it.(container); ok {
		rc.attach(c)
		c.refState().stack++
	}
}

// RemoveStackRef drops a reference to it from a stack or slot.
func (rc *RefCounter) RemoveStackRef(it Item) {
	if rc == nil {
		return
	}
	rc.count--
	if c, ok := it.(container); ok {
		rs := c.refState()
		rs.stack--
		if rs.stack == 0 {
			rc.dirty = true
		}
	}
}

// Reserve checks that n more references fit under the limit.
// When the raw count would exceed it, unreachable containers are
// collected first so garbage never causes a spurious failure.
func (rc *RefCounter) Reserve(n int) error {
	if rc == nil || rc.limit <= 0 || rc.count+n <= rc.limit {
		return nil
	}
	if rc.CheckZeroReferred()+n <= rc.limit {
		return nil
	}
	return errors.WithDetailf(ErrReferenceLimit, "%d + %d > %d", rc.count, n, rc.limit)
}

// addRef records a reference to child from a container.
func (rc *RefCounter) addRef(child Item) {
	if rc == nil {
		return
	}
	rc.count++
	if c, ok := child.(container); ok {
		rc.attach(c)
	}
}

// removeRef drops a reference to child from a container.
func (rc *RefCounter) removeRef(child Item) {
	if rc == nil {
		return
	}
	rc.count--
	if _, ok := child.(container); ok {
		rc.dirty = true
	}
}

// track registers a new container created with this counter.
// It has no references yet, so it is garbage until something
// holds it.
func (rc *RefCounter) track(c container) {
	if rc == nil {
		return
	}
	rc.tracked[c] = struct{}{}
	rc.dirty = true
}

// attach tracks c, adopting it and everything it reaches if it
// was built without a counter or was collected earlier.
func (rc *RefCounter) attach(c container) {
	if c.refState().rc == nil {
		rc.adoptAll(c)
	}
	rc.tracked[c] = struct{}{}
}

// adoptAll binds a graph built without a counter to rc and counts
// its element references. The walk uses an explicit work list.
func (rc *RefCounter) adoptAll(root container) {
	work := []container{root}
	root.refState().rc = rc
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		rc.tracked[c] = struct{}{}
		rc.count += c.subCount()
		c.subItems(func(it Item) {
			sub, ok := it.(container)
			if ok && sub.refState().rc == nil {
				sub.refState().rc = rc
				work = append(work, sub)
			}
		})
	}
	rc.dirty = true
}

// CheckZeroReferred collects containers that are no longer reachable
// from any stack or slot reference and returns the resulting count.
//
// Reachability is a mark pass from every container with a stack
// reference, driven by an explicit work list, so neither deep nesting
// nor cycles can grow the native call stack. Every unreached container
// stops contributing its elements to the count and is detached; if the
// host pushes it again it is adopted anew.
func (rc *RefCounter) CheckZeroReferred() int {
	if rc == nil {
		return 0
	}
	if !rc.dirty {
		return rc.count
	}
	rc.dirty = false

	marked := make(map[container]bool, len(rc.tracked))
	var work []container
	for c := range rc.tracked {
		if c.refState().stack > 0 {
			marked[c] = true
			work = append(work, c)
		}
	}
	for len(work) > 0 {
		c := work[len(work)-1]
		work = work[:len(work)-1]
		c.subItems(func(it Item) {
			sub, ok := it.(container)
			if ok && !marked[sub] {
				marked[sub] = true
				work = append(work, sub)
			}
		})
	}
	for c := range rc.tracked {
		if !marked[c] {
			rc.count -= c.subCount()
			c.refState().rc = nil
			delete(rc.tracked, c)
		}
	}
	return rc.count
}
