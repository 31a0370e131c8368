package dtree

import "github.com/timefuzz-go/timefuzz/internal/forms"

// ParentMethod records how a derivation tree's ParentInfo was produced.
type ParentMethod uint8

const (
	ParentMethodNone ParentMethod = iota
	ParentMethodDD                // extracted by delta-debugging segment selection
	ParentMethodExtension
)

// Segment is a half-open (begin, length) run over a parent tree's
// sequence nodes, as used by extraction and delta-debugging.
type Segment struct {
	Begin  int64
	Length int64
}

// ParentInfo records how a tree was derived from a source tree, per
// spec §3.
type ParentInfo struct {
	Method       ParentMethod
	ParentID     int64 // source DerivationTree FormID, 0 if none
	Segments     []Segment
	Stop         int64
	Complement   bool
	ParentLength int64
}

// Tree is a DerivationTree (spec §3): a root node plus the metadata
// needed to validate, regenerate, and link it to its source.
type Tree struct {
	ID forms.FormID

	Root              *Node
	NodeCount         int64
	SequenceNodeCount int64
	Valid             bool
	Regenerate        bool
	GrammarID         int64
	Seed              uint32
	TargetLength      int64
	SourceTreeID      int64
	Parent            ParentInfo

	changed bool
}

// New returns an empty, invalid tree for the given grammar.
func New(grammarID int64) *Tree {
	return &Tree{GrammarID: grammarID}
}

// Recount recomputes NodeCount, SequenceNodeCount, and Valid from the
// current Root. Call after any direct mutation of the node graph.
func (t *Tree) Recount() {
	if t.Root == nil {
		t.NodeCount, t.SequenceNodeCount, t.Valid = 0, 0, false
		return
	}
	t.NodeCount, t.SequenceNodeCount = t.Root.CountNodes()
	t.Valid = t.Root.IsValidSubtree()
	t.changed = true
}

// SequenceNodes returns every sequence node in t, left-to-right.
func (t *Tree) SequenceNodes() []*Node {
	return t.Root.SequenceNodesLeftToRight(nil)
}

// Tokens materializes t's sequence into the ordered terminal strings
// an Input stores (spec §2).
func (t *Tree) Tokens() []string {
	return t.Root.Materialize(nil)
}

// Changed reports, and clears, whether t was mutated since the last
// call. Forms use this to know whether they need re-saving.
func (t *Tree) Changed() bool {
	c := t.changed
	t.changed = false
	return c
}

// MemorySize estimates t's retained memory in bytes: a coarse
// per-node accounting sufficient for the object store's memory
// budget, not an exact sizeof.
func (t *Tree) MemorySize() int64 {
	var walk func(n *Node) int64
	walk = func(n *Node) int64 {
		if n == nil {
			return 0
		}
		size := int64(32 + len(n.Content))
		for _, c := range n.Children {
			size += walk(c)
		}
		return size
	}
	return walk(t.Root)
}

// Clear drops the entire node graph, returning every node to alloc's
// slab if alloc is non-nil, or simply dropping it for the GC otherwise.
func (t *Tree) Clear(alloc *Set) {
	if alloc != nil && t.Root != nil {
		alloc.Delete(t.Root)
	}
	t.Root = nil
	t.NodeCount, t.SequenceNodeCount, t.Valid = 0, 0, false
	t.changed = true
}

// FreeMemory drops the node graph but preserves Seed/TargetLength/
// GrammarID/Parent so the tree can later be regenerated on demand
// (spec §4.3 "drops nodes if not pinned"). Returns false (a no-op) if
// Regenerate is not set, since the tree could not be reconstructed.
func (t *Tree) FreeMemory(alloc *Set) bool {
	if !t.Regenerate {
		return false
	}
	t.Clear(alloc)
	return true
}

// CopyRecursive deep-copies src with plain allocation (no slab),
// intended for diagnostic paths that don't want to perturb a worker's
// pool accounting. It returns the new root and every node allocated,
// in preorder.
func CopyRecursive(src *Node) (*Node, []*Node) {
	if src == nil {
		return nil, nil
	}
	var allocated []*Node
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		cp := &Node{Kind: n.Kind, GrammarID: n.GrammarID, Content: n.Content}
		allocated = append(allocated, cp)
		if len(n.Children) > 0 {
			cp.Children = make([]*Node, len(n.Children))
			for i, c := range n.Children {
				cp.Children[i] = walk(c)
			}
		}
		return cp
	}
	root := walk(src)
	return root, allocated
}

// CopyRecursiveAlloc deep-copies src using alloc's slab, the hot path
// used by Extract and Extend. It returns the new root and every node
// allocated, in preorder.
func CopyRecursiveAlloc(src *Node, alloc *Set) (*Node, []*Node) {
	if src == nil {
		return nil, nil
	}
	var allocated []*Node
	var walk func(n *Node) *Node
	walk = func(n *Node) *Node {
		cp := alloc.New(n.Kind)
		cp.GrammarID = n.GrammarID
		cp.Content = n.Content
		allocated = append(allocated, cp)
		if len(n.Children) > 0 {
			cp.Children = make([]*Node, len(n.Children))
			for i, c := range n.Children {
				cp.Children[i] = walk(c)
			}
		}
		return cp
	}
	root := walk(src)
	return root, allocated
}

// DeepCopy returns a plain-allocated, fully independent copy of t.
func (t *Tree) DeepCopy() *Tree {
	root, _ := CopyRecursive(t.Root)
	cp := *t
	cp.Root = root
	cp.Parent.Segments = append([]Segment(nil), t.Parent.Segments...)
	cp.changed = false
	return &cp
}
