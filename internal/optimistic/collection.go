// Package optimistic keeps an in-memory collection that is mutated before
// the server confirms, and reconciled or rolled back once it answers.
//
// One outstanding remote mutation per record id is assumed. Two edits of
// the same record in flight are not coalesced: the last one to settle wins.
package optimistic

import (
	"strconv"
	"strings"
	"sync"
)

// TempPrefix marks ids minted locally for records the server has not seen
const TempPrefix = "tmp-"

// IsTempID reports whether id was minted by NextTempID
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

// Op is the kind of local mutation
type Op int

const (
	OpAdd Op = iota
	OpUpdate
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpUpdate:
		return "update"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Pending describes a local mutation awaiting the server. It carries
// enough to undo exactly that mutation.
type Pending[T any] struct {
	Op Op
	ID string

	prev  T   // value before update/remove
	index int // position before remove
}

// Collection is an ordered list of records keyed by a string id
type Collection[T any] struct {
	mu       sync.Mutex
	items    []T
	idOf     func(T) string
	seq      uint64
	onChange func([]T)
}

// New creates an empty collection. idOf extracts a record's id.
func New[T any](idOf func(T) string) *Collection[T] {
	return &Collection[T]{idOf: idOf}
}

// OnChange registers fn to run with a copy of the items after every
// mutation, replacing any previous hook.
func (c *Collection[T]) OnChange(fn func(items []T)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// NextTempID mints a monotonic local id
func (c *Collection[T]) NextTempID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return TempPrefix + strconv.FormatUint(c.seq, 10)
}

// Items returns a copy of the current records
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

// Len returns the number of records
func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Get finds a record by id
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Reset replaces every record, typically with a fresh server listing
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	c.items = append([]T(nil), items...)
	c.mu.Unlock()
	c.changed()
}

// Add inserts item at the head or tail
func (c *Collection[T]) Add(item T, atHead bool) *Pending[T] {
	c.mu.Lock()
	if atHead {
		c.items = append([]T{item}, c.items...)
	} else {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()
	c.changed()
	return &Pending[T]{Op: OpAdd, ID: c.idOf(item)}
}

// AddTemp builds a record around a fresh temp id and inserts it
func (c *Collection[T]) AddTemp(build func(tempID string) T, atHead bool) *Pending[T] {
	return c.Add(build(c.NextTempID()), atHead)
}

// Update applies fn to the record with id. It returns false when the
// record does not exist.
func (c *Collection[T]) Update(id string, fn func(*T)) (*Pending[T], bool) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, false
	}
	p := &Pending[T]{Op: OpUpdate, ID: id, prev: c.items[i], index: i}
	fn(&c.items[i])
	c.mu.Unlock()
	c.changed()
	return p, true
}

// Remove deletes the record with id
func (c *Collection[T]) Remove(id string) (*Pending[T], bool) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return nil, false
	}
	p := &Pending[T]{Op: OpRemove, ID: id, prev: c.items[i], index: i}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.mu.Unlock()
	c.changed()
	return p, true
}

// Confirm settles p successfully. When server is non-nil the local record
// (matched by the pending id, usually a temp id) is replaced in place by
// the authoritative one.
func (c *Collection[T]) Confirm(p *Pending[T], server *T) {
	if p == nil || server == nil || p.Op == OpRemove {
		return
	}
	c.mu.Lock()
	i := c.indexLocked(p.ID)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.items[i] = *server
	c.mu.Unlock()
	c.changed()
}

// Rollback undoes p. Other mutations applied since are left alone.
func (c *Collection[T]) Rollback(p *Pending[T]) {
	if p == nil {
		return
	}
	c.mu.Lock()
	switch p.Op {
	case OpAdd:
		if i := c.indexLocked(p.ID); i >= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
	case OpUpdate:
		if i := c.indexLocked(p.ID); i >= 0 {
			c.items[i] = p.prev
		}
	case OpRemove:
		if c.indexLocked(p.ID) < 0 {
			at := min(p.index, len(c.items))
			c.items = append(c.items[:at], append([]T{p.prev}, c.items[at:]...)...)
		}
	}
	c.mu.Unlock()
	c.changed()
}

// RemoveTemp drops a record by its temp id
func (c *Collection[T]) RemoveTemp(id string) bool {
	if !IsTempID(id) {
		return false
	}
	_, ok := c.Remove(id)
	return ok
}

func (c *Collection[T]) indexLocked(id string) int {
	for i, it := range c.items {
		if c.idOf(it) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) copyLocked() []T {
	return append([]T(nil), c.items...)
}

func (c *Collection[T]) changed() {
	c.mu.Lock()
	fn := c.onChange
	items := c.copyLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(items)
	}
}
