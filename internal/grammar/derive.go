package grammar

import (
	"github.com/timefuzz-go/timefuzz/internal/dtree"
	"github.com/timefuzz-go/timefuzz/internal/mtrand"
)

func mapKind(t NodeType) dtree.Kind {
	switch t {
	case NodeTerminal:
		return dtree.KindTerminal
	case NodeSequence:
		return dtree.KindSequence
	default:
		return dtree.KindNonTerminal
	}
}

type job struct {
	node      *dtree.Node
	grammarID int64
}

// Derive implements spec §4.2.7. It returns a Tree with Valid=false if
// g is not a valid grammar, targetLen < 1, or the root grammar node
// cannot be found; the caller is expected to retry with a new seed or
// report a grammar error, per spec §4.2.11 -- Derive itself never
// returns a Go error.
func Derive(g *Graph, targetLen int64, seed uint32, alloc *dtree.Set) *dtree.Tree {
	tree := dtree.New(g.Root)
	tree.Seed = seed
	tree.TargetLength = targetLen
	tree.Regenerate = true

	if !g.Valid || targetLen < 1 {
		return tree
	}
	rootGN := g.node(g.Root)
	if rootGN == nil {
		return tree
	}

	rng := mtrand.New(seed)
	root := newNodeFor(alloc, rootGN)
	tree.Root = root

	var qSeq, qNT []job
	seqCount := int64(0)
	if rootGN.Type == NodeSequence {
		seqCount++
	}
	if rootGN.Flags.Has(FlagProduceSequence) {
		qSeq = append(qSeq, job{node: root, grammarID: g.Root})
	} else {
		qNT = append(qNT, job{node: root, grammarID: g.Root})
	}

	// Phase 1: grow sequences toward targetLen.
	for seqCount < targetLen && len(qSeq) > 0 {
		j := qSeq[0]
		qSeq = qSeq[1:]
		seqCount = expandGrowingSequence(g, alloc, rng, j, targetLen, seqCount, &qSeq, &qNT)
	}

	// Phase 2: finish whatever is left in the sequence frontier without
	// growing it further.
	for len(qSeq) > 0 {
		j := qSeq[0]
		qSeq = qSeq[1:]
		expandOne(g, alloc, rng, j, selectNoSeqIncrease, &qSeq, &qNT)
	}

	// Phase 3: finish the non-terminal frontier, recursing via the
	// queues until only terminal leaves remain.
	for len(qNT) > 0 || len(qSeq) > 0 {
		if len(qNT) > 0 {
			j := qNT[0]
			qNT = qNT[1:]
			expandOne(g, alloc, rng, j, selectAny, &qSeq, &qNT)
			continue
		}
		j := qSeq[0]
		qSeq = qSeq[1:]
		expandOne(g, alloc, rng, j, selectAny, &qSeq, &qNT)
	}

	tree.Recount()
	return tree
}

func newNodeFor(alloc *dtree.Set, n *Node) *dtree.Node {
	var node *dtree.Node
	if alloc != nil {
		node = alloc.New(mapKind(n.Type))
	} else {
		node = &dtree.Node{Kind: mapKind(n.Type)}
	}
	node.GrammarID = n.ID
	return node
}

// expandGrowingSequence handles one qSeq item during phase 1,
// including the eager regex fast path (spec §4.2.7).
func expandGrowingSequence(g *Graph, alloc *dtree.Set, rng *mtrand.Rand, j job, targetLen, seqCount int64, qSeq, qNT *[]job) int64 {
	n := g.node(j.grammarID)
	if n == nil {
		return seqCount
	}

	if len(n.Expansions) == 1 {
		if e := g.expansion(n.Expansions[0]); e != nil && e.Regex != nil {
			return expandRegex(g, alloc, e, j, targetLen, seqCount, qSeq, qNT)
		}
	}

	eid, ok := selectMaxSeqProducing(g, n, rng)
	if !ok {
		eid, ok = selectAnyProducingSequence(g, n, rng)
	}
	if !ok {
		eid, ok = selectAny(g, n, rng)
	}
	if !ok {
		return seqCount
	}
	added := instantiate(g, alloc, g.expansion(eid), j.node, qSeq, qNT)
	return seqCount + added
}

// expandRegex eagerly instantiates copies of a regex expansion's
// child to reach targetLen (spec §4.2.7).
func expandRegex(g *Graph, alloc *dtree.Set, e *Expansion, j job, targetLen, seqCount int64, qSeq, qNT *[]job) int64 {
	child := g.node(e.Regex.Child)
	if child == nil {
		return seqCount
	}
	need := targetLen - seqCount
	if need < 0 {
		need = 0
	}
	if e.Regex.LowerBound == 1 && need < 1 {
		need = 1
	}
	added := int64(0)
	for i := int64(0); i < need; i++ {
		cn := newNodeFor(alloc, child)
		j.node.Children = append(j.node.Children, cn)
		if child.Type == NodeSequence {
			added++
		}
		if child.Flags.Has(FlagProduceSequence) {
			*qSeq = append(*qSeq, job{node: cn, grammarID: child.ID})
		} else {
			*qNT = append(*qNT, job{node: cn, grammarID: child.ID})
		}
	}
	return seqCount + added
}

// expandOne instantiates the expansion selector chooses for j, and
// returns immediately (sequence-count tracking is only needed during
// phase 1, by expandGrowingSequence).
func expandOne(g *Graph, alloc *dtree.Set, rng *mtrand.Rand, j job, selector func(*Graph, *Node, *mtrand.Rand) (int64, bool), qSeq, qNT *[]job) {
	n := g.node(j.grammarID)
	if n == nil {
		return
	}
	if len(n.Expansions) == 1 {
		if e := g.expansion(n.Expansions[0]); e != nil && e.Regex != nil {
			expandRegex(g, alloc, e, j, 0, 0, qSeq, qNT)
			return
		}
	}
	eid, ok := selector(g, n, rng)
	if !ok {
		eid, ok = selectAny(g, n, rng)
	}
	if !ok {
		return
	}
	instantiate(g, alloc, g.expansion(eid), j.node, qSeq, qNT)
}

// instantiate materializes e's nodes as children of target, sampling
// terminal content immediately and routing non-terminal/sequence
// children into the appropriate queue. It returns the number of new
// sequence nodes created.
func instantiate(g *Graph, alloc *dtree.Set, e *Expansion, target *dtree.Node, qSeq, qNT *[]job) int64 {
	if e == nil {
		return 0
	}
	var added int64
	for _, nid := range e.Nodes {
		gn := g.node(nid)
		if gn == nil {
			continue
		}
		cn := newNodeFor(alloc, gn)
		target.Children = append(target.Children, cn)
		if gn.Type == NodeTerminal {
			cn.Content = sampleTerminal(gn)
			continue
		}
		if gn.Type == NodeSequence {
			added++
		}
		if gn.Flags.Has(FlagProduceSequence) {
			*qSeq = append(*qSeq, job{node: cn, grammarID: gn.ID})
		} else {
			*qNT = append(*qNT, job{node: cn, grammarID: gn.ID})
		}
	}
	return added
}

const (
	asciiLo = 0x01
	asciiHi = 0x7e
)

// sampleTerminal produces a terminal node's content: a sampled
// character for class terminals, or the node's identifier string
// verbatim otherwise (spec §4.2.7). Class terminals are sampled
// deterministically from a fixed representative (the class's first
// member) since Derive's rng stream is reserved for structural
// choices; callers that need varied class content should prefer an
// explicit terminal alternative per character instead.
func sampleTerminal(n *Node) string {
	switch {
	case n.Flags.Has(FlagClassASCII):
		return string(rune(asciiLo))
	case n.Flags.Has(FlagClassAlpha):
		return "A"
	case n.Flags.Has(FlagClassAlnum):
		return "A"
	case n.Flags.Has(FlagClassDigit):
		return "0"
	default:
		return n.Name
	}
}

func weightsOf(g *Graph, ids []int64) ([]float64, bool) {
	weights := make([]float64, len(ids))
	anyWeighted := false
	for i, id := range ids {
		e := g.expansion(id)
		if e != nil && e.HasWeight {
			weights[i] = e.Weight
			anyWeighted = true
		} else {
			weights[i] = 1
		}
	}
	return weights, anyWeighted
}

func pick(g *Graph, rng *mtrand.Rand, ids []int64) (int64, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	weights, weighted := weightsOf(g, ids)
	if weighted {
		return ids[rng.WeightedIndex(weights)], true
	}
	return ids[rng.Intn(len(ids))], true
}

// selectMaxSeqProducing picks among n's expansions the one(s) that
// directly produce the most sequence non-terminals, breaking ties by
// weight if set.
func selectMaxSeqProducing(g *Graph, n *Node, rng *mtrand.Rand) (int64, bool) {
	best := 0
	var candidates []int64
	for _, eid := range n.Expansions {
		e := g.expansion(eid)
		if e == nil || e.NumSeqProducingNonTerminals == 0 {
			continue
		}
		switch {
		case e.NumSeqProducingNonTerminals > best:
			best = e.NumSeqProducingNonTerminals
			candidates = []int64{eid}
		case e.NumSeqProducingNonTerminals == best:
			candidates = append(candidates, eid)
		}
	}
	if best == 0 {
		return 0, false
	}
	return pick(g, rng, candidates)
}

func selectAnyProducingSequence(g *Graph, n *Node, rng *mtrand.Rand) (int64, bool) {
	var candidates []int64
	for _, eid := range n.Expansions {
		e := g.expansion(eid)
		if e != nil && e.Flags.Has(FlagProduceSequence) {
			candidates = append(candidates, eid)
		}
	}
	return pick(g, rng, candidates)
}

func selectNoSeqIncrease(g *Graph, n *Node, rng *mtrand.Rand) (int64, bool) {
	var candidates []int64
	for _, eid := range n.Expansions {
		e := g.expansion(eid)
		if e != nil && e.NumSeqProducingNonTerminals == 0 {
			candidates = append(candidates, eid)
		}
	}
	return pick(g, rng, candidates)
}

func selectAny(g *Graph, n *Node, rng *mtrand.Rand) (int64, bool) {
	return pick(g, rng, n.Expansions)
}
