package lru

import (
	"container/list"
	"sync"
)

type CacheIdentifier interface {
	Identifier() string
}

// Cache is a thread-safe, capacity-bounded cache of entries keyed by their
// identifiers. The least recently used entry is evicted first.
type Cache[T CacheIdentifier] struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	index    map[string]*list.Element
	onEvict  func(T)
}

type CacheOption[T CacheIdentifier] func(*Cache[T])

// WithEvictCallback registers fn to be called with every entry dropped
// because the cache was full.
func WithEvictCallback[T CacheIdentifier](fn func(T)) CacheOption[T] {
	return func(c *Cache[T]) {
		c.onEvict = fn
	}
}

func NewCache[T CacheIdentifier](capacity int, opts ...CacheOption[T]) *Cache[T] {
	if capacity < 1 {
		capacity = 1
	}
	c := &Cache[T]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache[T]) addUnsafe(entry T) {
	id := entry.Identifier()

	if el, ok := c.index[id]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}

	var evicted []T
	for c.order.Len() >= c.capacity {
		el := c.order.Back()
		c.order.Remove(el)
		old := el.Value.(T)
		delete(c.index, old.Identifier())
		evicted = append(evicted, old)
	}

	c.index[id] = c.order.PushFront(entry)

	if c.onEvict != nil {
		for _, e := range evicted {
			c.onEvict(e)
		}
	}
}

// Add inserts entry or replaces the entry with the same identifier.
func (c *Cache[T]) Add(entry T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addUnsafe(entry)
}

// GetOrCreate returns the entry for id, generating and adding it when absent.
func (c *Cache[T]) GetOrCreate(id string, generate func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[id]; ok {
		c.order.MoveToFront(el)
		return el.Value.(T), nil
	}

	entry, err := generate()
	if err != nil {
		return entry, err
	}
	c.addUnsafe(entry)
	return entry, nil
}

func (c *Cache[T]) GetByID(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(T), true
}

func (c *Cache[T]) DeleteByID(id string) (present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[id]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.index, id)
	return true
}

func (c *Cache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// List returns entries from the least to the most recently used.
func (c *Cache[T]) List() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]T, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		entries = append(entries, el.Value.(T))
	}
	return entries
}
