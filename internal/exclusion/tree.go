// Package exclusion implements the exclusion tree (spec §4.4): a
// shared, concurrency-safe radix trie over interned input-atom
// sequences recording the oracle's verdict on every prefix an input
// has reached, so the fuzzing loop never re-dispatches an input whose
// prefix is already decided.
package exclusion

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/timefuzz-go/timefuzz/internal/forms"
)

// Verdict is the oracle's classification of an input (spec §3's
// "oracle result": passing / failing / unfinished / undefined).
type Verdict uint8

const (
	Undefined Verdict = iota
	Passing
	Failing
	Unfinished
)

// node is an exclusion-tree node (spec §3): a string-atom id reached
// from its parent, a unique node id, a visit counter, children, and --
// once decided -- the oracle result and the input id that produced it.
type node struct {
	atom     int64
	id       uint64
	visits   uint64
	children map[int64]*node
	isLeaf   bool
	result   Verdict
	inputID  forms.FormID
}

func newNode(id uint64, atom int64) *node {
	return &node{id: id, atom: atom, children: make(map[int64]*node), result: Undefined}
}

// Tree is the exclusion tree (spec §3, §4.4). The zero value is not
// usable; construct one with New.
type Tree struct {
	ID forms.FormID

	mu         sync.RWMutex
	disabled   bool
	root       *node
	nodes      map[uint64]*node
	nextNodeID uint64
	depth      int64
	leafCount  int64
	log        *zerolog.Logger
}

// SetLogger attaches an optional logger, following the same nil-safe
// convention as store.Resolver.SetLogger: AddInput logs at Debug when
// an input is rejected as already subsumed by a decided prefix.
func (t *Tree) SetLogger(log *zerolog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = log
}

// New builds an exclusion tree whose root is node id 0 with result
// Undefined. When disabled is true (settings' disableExclusionTree),
// AddInput is a no-op and every query reports "no decision" (spec
// §4.4 "Disablement").
func New(disabled bool) *Tree {
	t := &Tree{ID: forms.ExclusionTreeID, disabled: disabled, nodes: make(map[uint64]*node)}
	t.root = newNode(0, 0)
	t.nodes[0] = t.root
	t.nextNodeID = 1
	return t
}

// Depth returns the deepest insertion the tree has observed.
func (t *Tree) Depth() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.depth
}

// LeafCount returns the number of currently decided (Passing/Failing)
// leaves, after subsumption collapses their now-redundant descendants.
func (t *Tree) LeafCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.leafCount
}

// AddInput walks atoms from the root, creating children as needed, and
// records result at the terminal position. If an ancestor is already a
// decided (Passing/Failing) leaf, the input is already subsumed and
// AddInput returns false without modifying the tree. When result is
// Passing or Failing, the terminal node becomes a leaf, its
// descendants are pruned (they would only repeat the same decision),
// and leafCount is incremented. Unfinished and Undefined results are
// recorded but never prune -- per spec §8, "an unfinished exact-length
// match blocks repetition" without deciding the prefix.
func (t *Tree) AddInput(atoms []int64, inputID forms.FormID, result Verdict) bool {
	if t.disabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.root
	for _, a := range atoms {
		if cur.isLeaf {
			t.warnSubsumed(inputID)
			return false
		}
		cur.visits++
		child, ok := cur.children[a]
		if !ok {
			child = newNode(t.nextNodeID, a)
			t.nextNodeID++
			t.nodes[child.id] = child
			cur.children[a] = child
		}
		cur = child
	}
	if cur.isLeaf {
		t.warnSubsumed(inputID)
		return false
	}
	cur.visits++
	cur.result = result
	cur.inputID = inputID

	if result == Passing || result == Failing {
		t.pruneDescendants(cur)
		cur.isLeaf = true
		t.leafCount++
	}
	if int64(len(atoms)) > t.depth {
		t.depth = int64(len(atoms))
	}
	return true
}

// warnSubsumed logs, at Debug, that inputID was rejected because its
// prefix is already covered by an earlier decided leaf. Called with
// t.mu held.
func (t *Tree) warnSubsumed(inputID forms.FormID) {
	if t.log == nil {
		return
	}
	t.log.Debug().Uint64("input_id", uint64(inputID)).Msg("input subsumed by decided prefix")
}

// pruneDescendants discards n's subtree, since it is now subsumed by
// n's own decision. Every erased leaf decrements leafCount; every
// erased node is removed from the id map in the same pass (spec
// §4.4's "Deletion policy").
func (t *Tree) pruneDescendants(n *node) {
	var walk func(*node)
	walk = func(x *node) {
		for _, c := range x.children {
			walk(c)
			if c.isLeaf {
				t.leafCount--
			}
			delete(t.nodes, c.id)
		}
		x.children = make(map[int64]*node)
	}
	walk(n)
}

// HasPrefix reports whether atoms is itself, or extends, a decided
// prefix, and the FormID of the input that decided it. An exact-length
// match against a node recorded Unfinished also counts as "has
// prefix" -- it blocks exact repetition of an attempt that did not
// finish, per spec §4.4/§8, without deciding the prefix for shorter or
// longer continuations.
func (t *Tree) HasPrefix(atoms []int64) (bool, forms.FormID) {
	if t.disabled {
		return false, 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.root
	for _, a := range atoms {
		if cur.isLeaf {
			return true, cur.inputID
		}
		cur.visits++
		child, ok := cur.children[a]
		if !ok {
			return false, 0
		}
		cur = child
	}
	if cur.isLeaf {
		return true, cur.inputID
	}
	if cur.result == Unfinished {
		return true, cur.inputID
	}
	return false, 0
}

// HasPrefixAndShortestExtension reports the same thing as HasPrefix,
// and -- when atoms itself is undecided -- whether some stored
// descendant is a decided leaf or an Unfinished exact match, returning
// the first one found by breadth-first search and the input id that
// produced it (spec §4.4).
func (t *Tree) HasPrefixAndShortestExtension(atoms []int64) (hasPrefix bool, prefixID forms.FormID, hasExtension bool, extensionID forms.FormID) {
	if t.disabled {
		return false, 0, false, 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.root
	for _, a := range atoms {
		if cur.isLeaf {
			return true, cur.inputID, false, 0
		}
		child, ok := cur.children[a]
		if !ok {
			return false, 0, false, 0
		}
		cur = child
	}
	if cur.isLeaf {
		return true, cur.inputID, false, 0
	}
	if cur.result == Unfinished {
		return true, cur.inputID, false, 0
	}

	id, ok := shortestDecidedOrUnfinished(cur)
	return false, 0, ok, id
}

// shortestDecidedOrUnfinished runs a BFS from n, returning the input id
// of the nearest leaf or Unfinished node.
func shortestDecidedOrUnfinished(n *node) (forms.FormID, bool) {
	queue := []*node{n}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if x.isLeaf || x.result == Unfinished {
			return x.inputID, true
		}
		for _, c := range x.children {
			queue = append(queue, c)
		}
	}
	return 0, false
}
