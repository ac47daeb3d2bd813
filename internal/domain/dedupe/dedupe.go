// Package dedupe drops repeated fight records before they reach the engine.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/fightelo/internal/domain/model"
	"github.com/okian/fightelo/pkg/metrics"
)

// Deduper records seen fight IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	Size() int64
}

// node is one entry of the insertion-ordered list.
type node struct {
	id         string
	prev, next *node
}

func (n *node) reset() {
	n.id = ""
	n.prev = nil
	n.next = nil
}

// inMemoryDeduper implements Deduper with a map and an insertion-ordered
// list. For maxSize > 0 the oldest ID is evicted once the bound is reached;
// for maxSize <= 0 IDs are kept forever.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]*node
	head     *node // most recently added
	tail     *node // oldest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() interface{} {
			return &node{}
		},
	}
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize <= 0 {
		d.seen[id] = nil
		d.size.Add(1)
		return false
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.id = id
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[id] = n
	d.size.Add(1)
	return false
}

// evictOldest removes the tail entry. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	old := d.tail
	if old == nil {
		return
	}
	d.tail = old.prev
	if d.tail != nil {
		d.tail.next = nil
	} else {
		d.head = nil
	}
	delete(d.seen, old.id)
	old.reset()
	d.nodePool.Put(old)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Filter returns fights with repeated records removed, keyed by
// model.Fight.ID. The first occurrence wins and order is preserved.
func Filter(ctx context.Context, d Deduper, fights []model.Fight) (kept []model.Fight, dropped int) {
	kept = make([]model.Fight, 0, len(fights))
	for _, f := range fights {
		if d.SeenAndRecord(ctx, f.ID()) {
			dropped++
			metrics.RecordDuplicateFight()
			continue
		}
		kept = append(kept, f)
	}
	return kept, dropped
}
