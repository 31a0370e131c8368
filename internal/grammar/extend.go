package grammar

import (
	"github.com/timefuzz-go/timefuzz/internal/dtree"
	"github.com/timefuzz-go/timefuzz/internal/mtrand"
)

// ExtendParams bundles the backtrack/extension range inputs to Extend
// (spec §4.2.9). Extend draws its backtrack count from
// BacktrackMin/BacktrackMax only; ExtensionMin/ExtensionMax are carried
// but not read by Extend.
type ExtendParams struct {
	BacktrackMin, BacktrackMax int64
	ExtensionMin, ExtensionMax int64
	TargetLength               int64
	Seed                       uint32
}

// Extend implements spec §4.2.9: pick a backtrack count, locate an
// anchor non-terminal that many sequence atoms back from the end of
// source (or a deep copy of the whole tree if backtrack is 0), then
// grow new derivation beneath that anchor to reach TargetLength
// sequence atoms tree-wide. Growth is strictly additive: it appends to
// or wraps the anchor's existing children rather than replacing them,
// so that whatever source material survived the backtrack/extract
// step remains present in the result (spec §8 "D contains I's tree as
// a prefix subtree" for backtrack=0).
func Extend(g *Graph, source *dtree.Tree, p ExtendParams, alloc *dtree.Set) *dtree.Tree {
	rng := mtrand.New(p.Seed)
	backtrack := rangePick(rng, p.BacktrackMin, p.BacktrackMax)

	var dest *dtree.Tree
	if backtrack <= 0 {
		dest = source.DeepCopy()
	} else {
		seqNodes := source.SequenceNodes()
		total := int64(len(seqNodes))
		keep := total - backtrack
		if keep < 0 {
			keep = 0
		}
		dest = Extract(g, source, []dtree.Segment{{Begin: 0, Length: keep}}, keep, false, alloc)
	}

	dest.Parent = dtree.ParentInfo{
		Method:       dtree.ParentMethodExtension,
		ParentID:     source.SourceTreeID,
		ParentLength: source.SequenceNodeCount,
	}
	dest.Seed = p.Seed
	dest.TargetLength = p.TargetLength

	if dest.Root == nil {
		dest.Valid = false
		return dest
	}

	parent, idx, anchor := findAnchorSite(g, dest)
	if anchor == nil {
		dest.Valid = false
		return dest
	}

	if !growFrontier(g, dest, parent, idx, anchor, p.TargetLength, rng, alloc) {
		dest.Valid = false
		return dest
	}
	dest.Recount()
	dest.Valid = true
	return dest
}

// rangePick draws a uniform integer in [lo,hi]; if hi<lo the range
// collapses to lo.
func rangePick(rng *mtrand.Rand, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	span := hi - lo + 1
	return lo + rng.Int63n(span)
}

// findAnchorSite locates the non-terminal node in dest from which new
// sequence production can be grafted without disturbing anything else
// in the tree (spec §4.2.9). For a simple grammar this is always
// dest.Root itself (its single regex expansion already holds every
// sequence atom as a flat, variable-length child list, so growth is
// just appending more children there); parent/idx are returned as
// nil/-1 to signal the in-place-append case.
//
// For a general grammar, dest.Root's grammar node is always a
// non-terminal (root normalization guarantees this, normalize.go's
// NormalizeRoot), so a check that only inspects the node itself before
// descending would always stop at the root on its first iteration.
// Instead this walks the right-most spine of dest, remembering the
// lowest (deepest) ancestor whose grammar node *admits* an expansion
// producing two or more sequence-producing children -- i.e. a node
// shaped like a recursive rule's driver (one child continues the
// sequence, another re-enters the same non-terminal) -- and returns
// that ancestor together with its parent/child-index so the caller can
// splice a grown replacement into the parent's child slot while
// leaving the ancestor's own subtree untouched, nested inside the
// replacement.
func findAnchorSite(g *Graph, dest *dtree.Tree) (parent *dtree.Node, idx int, anchor *dtree.Node) {
	if g.Simple {
		return nil, -1, dest.Root
	}

	idx = -1
	var walk func(p *dtree.Node, childIdx int, cur *dtree.Node)
	walk = func(p *dtree.Node, childIdx int, cur *dtree.Node) {
		if cur == nil {
			return
		}
		gn := g.node(cur.GrammarID)
		if gn != nil && gn.Type != NodeTerminal && admitsMultiSeqProducing(g, gn) {
			parent, idx, anchor = p, childIdx, cur
		}
		if len(cur.Children) == 0 {
			return
		}
		last := len(cur.Children) - 1
		walk(cur, last, cur.Children[last])
	}
	walk(nil, -1, dest.Root)
	return parent, idx, anchor
}

// admitsMultiSeqProducing reports whether gn has some expansion
// referencing two or more sequence-producing non-terminals (spec
// §4.2.9's anchor-admission test). This checks the grammar's
// capability, not which expansion a particular tree instance actually
// chose, since the anchor search only needs to know growth is possible
// from this node's type.
func admitsMultiSeqProducing(g *Graph, gn *Node) bool {
	for _, eid := range gn.Expansions {
		if e := g.expansion(eid); e != nil && countSeqProducing(g, e) >= 2 {
			return true
		}
	}
	return false
}

func countSeqProducing(g *Graph, e *Expansion) int {
	n := 0
	for _, nid := range e.Nodes {
		if cn := g.node(nid); cn != nil && cn.Flags.Has(FlagProduceSequence) {
			n++
		}
	}
	return n
}

// recursionSlot picks, among e's nodes, the index that continues the
// recursion rooted at anchorID: the node referencing anchorID itself
// if one is present (true self-recursion), else the last
// sequence-producing node in the list (the right-most-path convention
// used throughout this package).
func recursionSlot(g *Graph, anchorID int64, e *Expansion) int {
	slot, self := -1, -1
	for i, nid := range e.Nodes {
		if nid == anchorID {
			self = i
		}
		if cn := g.node(nid); cn != nil && cn.Flags.Has(FlagProduceSequence) {
			slot = i
		}
	}
	if self >= 0 {
		return self
	}
	return slot
}

// growFrontier grows dest to targetTotal sequence atoms tree-wide by
// grafting new material at anchor, without discarding anchor's
// existing subtree (spec §4.2.9 step 4, generalized to preserve
// whatever the backtrack/extract step already kept).
func growFrontier(g *Graph, dest *dtree.Tree, parent *dtree.Node, idx int, anchor *dtree.Node, targetTotal int64, rng *mtrand.Rand, alloc *dtree.Set) bool {
	dest.Recount()
	need := targetTotal - dest.SequenceNodeCount
	if need <= 0 {
		return true
	}

	if g.Simple {
		return growSimpleInPlace(g, anchor, need, rng, alloc)
	}
	return growGeneral(g, dest, parent, idx, anchor, need, rng, alloc)
}

// growSimpleInPlace appends `need` more regex-repeated children
// directly onto anchor (== dest.Root for a simple grammar), leaving
// every existing child untouched.
func growSimpleInPlace(g *Graph, anchor *dtree.Node, need int64, rng *mtrand.Rand, alloc *dtree.Set) bool {
	gn := g.node(anchor.GrammarID)
	if gn == nil || len(gn.Expansions) != 1 {
		return false
	}
	e := g.expansion(gn.Expansions[0])
	if e == nil || e.Regex == nil {
		return false
	}
	child := g.node(e.Regex.Child)
	if child == nil {
		return false
	}

	var qSeq, qNT []job
	for i := int64(0); i < need; i++ {
		cn := newNodeFor(alloc, child)
		anchor.Children = append(anchor.Children, cn)
		if child.Type == NodeTerminal {
			cn.Content = sampleTerminal(child)
			continue
		}
		if child.Flags.Has(FlagProduceSequence) {
			qSeq = append(qSeq, job{node: cn, grammarID: child.ID})
		} else {
			qNT = append(qNT, job{node: cn, grammarID: child.ID})
		}
	}
	finishFrontier(g, alloc, rng, &qSeq, &qNT)
	return true
}

// growGeneral grows a non-simple grammar's tree by wrapping anchor in
// a chain of freshly-instantiated recursive expansions: each wrapper
// reuses the expansion shape that originally admitted anchor
// (selected the same way Derive's phase 1 picks growth expansions),
// keeps anchor (or the previous wrapper) nested at its recursion slot,
// and instantiates the expansion's other slot(s) as brand-new
// material. The chain is then spliced into parent's child list (or
// becomes dest.Root if anchor had no parent), so nothing anchor or its
// ancestors already held is discarded.
func growGeneral(g *Graph, dest *dtree.Tree, parent *dtree.Node, idx int, anchor *dtree.Node, need int64, rng *mtrand.Rand, alloc *dtree.Set) bool {
	anchorGN := g.node(anchor.GrammarID)
	if anchorGN == nil {
		return false
	}

	cur := anchor
	var qSeq, qNT []job
	added := int64(0)
	// maxWraps bounds the wrap loop: most recursive shapes add exactly
	// one sequence atom per wrapper, but a shape whose non-recursion
	// slot isn't itself a direct sequence atom can wrap several times
	// per atom added, so give it headroom rather than looping forever.
	maxWraps := need*4 + 16
	for added < need && maxWraps > 0 {
		maxWraps--
		eid, ok := selectMaxSeqProducing(g, anchorGN, rng)
		if !ok {
			eid, ok = selectAnyProducingSequence(g, anchorGN, rng)
		}
		if !ok {
			break
		}
		e := g.expansion(eid)
		slot := recursionSlot(g, anchorGN.ID, e)
		if slot < 0 {
			break
		}

		wrapper := newNodeFor(alloc, anchorGN)
		wrapper.Children = make([]*dtree.Node, len(e.Nodes))
		for i, nid := range e.Nodes {
			if i == slot {
				wrapper.Children[i] = cur
				continue
			}
			ngn := g.node(nid)
			if ngn == nil {
				continue
			}
			cn := newNodeFor(alloc, ngn)
			wrapper.Children[i] = cn
			if ngn.Type == NodeTerminal {
				cn.Content = sampleTerminal(ngn)
				continue
			}
			if ngn.Type == NodeSequence {
				added++
			}
			if ngn.Flags.Has(FlagProduceSequence) {
				qSeq = append(qSeq, job{node: cn, grammarID: ngn.ID})
			} else {
				qNT = append(qNT, job{node: cn, grammarID: ngn.ID})
			}
		}
		cur = wrapper
	}
	if cur == anchor {
		return false // no growable expansion found; nothing grafted
	}

	finishFrontier(g, alloc, rng, &qSeq, &qNT)

	if idx >= 0 && parent != nil {
		parent.Children[idx] = cur
	} else {
		dest.Root = cur
	}
	return true
}

// finishFrontier runs spec §4.2.7's phases 2-3 over whatever new
// non-terminal/sequence children growth just created, recursing each
// down to terminal leaves without growing the sequence count further.
func finishFrontier(g *Graph, alloc *dtree.Set, rng *mtrand.Rand, qSeq, qNT *[]job) {
	for len(*qSeq) > 0 {
		j := (*qSeq)[0]
		*qSeq = (*qSeq)[1:]
		expandOne(g, alloc, rng, j, selectNoSeqIncrease, qSeq, qNT)
	}
	for len(*qNT) > 0 {
		j := (*qNT)[0]
		*qNT = (*qNT)[1:]
		expandOne(g, alloc, rng, j, selectAny, qSeq, qNT)
	}
}
