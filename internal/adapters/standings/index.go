// Package standings keeps an in-memory ranking of historic ratings.
package standings

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/okian/ladder/internal/domain/types"
	"github.com/okian/ladder/pkg/metrics"
)

// Treap ordered by rating DESC, then player name ASC, then id ASC, so an
// in-order walk yields the table from best to worst. Every node carries its
// subtree size, which makes Rank O(log n).

type node struct {
	entry types.Entry
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// before reports whether a ranks ahead of b.
func before(a, b *types.Entry) bool {
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.PlayerID < b.PlayerID
}

// priority hashes the id so the tree shape is reproducible.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, e types.Entry) *node {
	if n == nil {
		return &node{entry: e, prio: priority(e.PlayerID), size: 1}
	}
	if before(&e, &n.entry) {
		n.left = insert(n.left, e)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, e)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, e *types.Entry) *node {
	if n == nil {
		return nil
	}
	switch {
	case n.entry.PlayerID == e.PlayerID:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, e)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, e)
		}
	case before(e, &n.entry):
		n.left = remove(n.left, e)
	default:
		n.right = remove(n.right, e)
	}
	fix(n)
	return n
}

// position returns the 1-based position of e.
func position(n *node, e *types.Entry) int {
	pos := 0
	for n != nil {
		switch {
		case n.entry.PlayerID == e.PlayerID:
			return pos + nsize(n.left) + 1
		case before(e, &n.entry):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

func collect(n *node, limit int, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collect(n.left, limit, out)
	if len(*out) < limit {
		e := n.entry
		e.Rank = len(*out) + 1
		*out = append(*out, e)
	}
	collect(n.right, limit, out)
}

// Index is a concurrency-safe ranking of players by historic rating.
type Index struct {
	mu   sync.RWMutex
	root *node
	byID map[string]types.Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]types.Entry)}
}

// Upsert inserts or replaces the entry for e.PlayerID.
func (ix *Index) Upsert(_ context.Context, e types.Entry) {
	ix.mu.Lock()
	if old, ok := ix.byID[e.PlayerID]; ok {
		ix.root = remove(ix.root, &old)
	}
	e.Rank = 0
	ix.byID[e.PlayerID] = e
	ix.root = insert(ix.root, e)
	count := len(ix.byID)
	ix.mu.Unlock()

	metrics.UpdateTrackedPlayers(count)
}

// Replace swaps the whole content, used when reloading from the store.
func (ix *Index) Replace(_ context.Context, entries []types.Entry) {
	var root *node
	byID := make(map[string]types.Entry, len(entries))
	for _, e := range entries {
		if old, ok := byID[e.PlayerID]; ok {
			root = remove(root, &old)
		}
		e.Rank = 0
		byID[e.PlayerID] = e
		root = insert(root, e)
	}

	ix.mu.Lock()
	ix.root, ix.byID = root, byID
	ix.mu.Unlock()

	metrics.UpdateTrackedPlayers(len(byID))
}

// Rank returns the entry for playerID with its current position.
func (ix *Index) Rank(_ context.Context, playerID string) (types.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	e, ok := ix.byID[playerID]
	if !ok {
		return types.Entry{}, ErrNotFound
	}
	e.Rank = position(ix.root, &e)
	return e, nil
}

// TopN returns the first n entries of the table.
func (ix *Index) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() { metrics.RecordQueryLatency(float64(time.Since(start).Microseconds()) / 1000) }()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(ix.byID)))
	collect(ix.root, n, &out)
	return out, nil
}

// Count returns the number of ranked players.
func (ix *Index) Count(_ context.Context) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}
