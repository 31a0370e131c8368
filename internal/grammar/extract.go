package grammar

import (
	"sort"

	"github.com/timefuzz-go/timefuzz/internal/dtree"
)

func parseNodeWrapperPrefix(n *Node) bool {
	return len(n.Name) >= 3 && n.Name[:3] == "PN_"
}

// selectedIndices implements the segment/complement selection rule
// shared by extraction and delta-debugging (spec §4.2.8): either the
// union of the given segments, or (complement=true) every index below
// stop not covered by any segment.
func selectedIndices(segments []dtree.Segment, stop int64, complement bool, total int64) []int64 {
	if !complement {
		var out []int64
		for _, s := range segments {
			for i := s.Begin; i < s.Begin+s.Length && i < total; i++ {
				out = append(out, i)
			}
		}
		return out
	}
	covered := make(map[int64]bool)
	for _, s := range segments {
		for i := s.Begin; i < s.Begin+s.Length && i < total; i++ {
			covered[i] = true
		}
	}
	var out []int64
	for i := int64(0); i < stop && i < total; i++ {
		if !covered[i] {
			out = append(out, i)
		}
	}
	return out
}

// Extract implements spec §4.2.8: build a new Tree whose sequence
// atoms are the segments (or their complement up to stop) selected
// from source's sequence nodes, in order.
func Extract(g *Graph, source *dtree.Tree, segments []dtree.Segment, stop int64, complement bool, alloc *dtree.Set) *dtree.Tree {
	dest := dtree.New(g.Root)
	dest.Parent = dtree.ParentInfo{
		Method:       dtree.ParentMethodDD,
		Segments:     append([]dtree.Segment(nil), segments...),
		Stop:         stop,
		Complement:   complement,
		ParentLength: source.SequenceNodeCount,
	}

	seqNodes := source.SequenceNodes()
	total := int64(len(seqNodes))
	idx := selectedIndices(segments, stop, complement, total)
	if len(idx) == 0 || !g.Valid {
		return dest
	}

	if g.Simple {
		extractSimple(g, dest, seqNodes, idx, alloc)
		return dest
	}
	extractGeneral(g, dest, seqNodes, idx, alloc)
	return dest
}

func extractSimple(g *Graph, dest *dtree.Tree, seqNodes []*dtree.Node, idx []int64, alloc *dtree.Set) {
	rootNode := g.node(g.Root)
	if rootNode == nil || len(rootNode.Expansions) != 1 {
		return
	}
	exp := g.expansion(rootNode.Expansions[0])
	if exp == nil || exp.Regex == nil {
		return
	}
	regexChild := exp.Regex.Child

	if seqNodes[idx[0]].GrammarID != regexChild {
		return
	}
	for _, i := range idx {
		if seqNodes[i].GrammarID != regexChild {
			return
		}
	}

	root := alloc.New(dtree.KindNonTerminal)
	root.GrammarID = g.Root
	for _, i := range idx {
		cp, _ := dtree.CopyRecursiveAlloc(seqNodes[i], alloc)
		root.Children = append(root.Children, cp)
	}
	dest.Root = root
	dest.Recount()
}

func extractGeneral(g *Graph, dest *dtree.Tree, seqNodes []*dtree.Node, idx []int64, alloc *dtree.Set) {
	pg := g.ParsePrepared
	if pg == nil {
		return
	}
	atoms := make([]int64, len(idx))
	srcForAtom := make([]*dtree.Node, len(idx))
	for k, i := range idx {
		atoms[k] = seqNodes[i].GrammarID
		srcForAtom[k] = seqNodes[i]
	}

	chart, ok := recognize(pg, pg.Root, atoms)
	if !ok {
		return
	}
	root, ok := buildFromChart(pg, chart, pg.Root, 0, len(atoms), atoms, srcForAtom, alloc)
	if !ok {
		return
	}
	dest.Root = root
	dest.Recount()
}

func buildFromChart(pg *Graph, chart *earleyChart, nodeID int64, start, end int, atoms []int64, src []*dtree.Node, alloc *dtree.Set) (*dtree.Node, bool) {
	gn := pg.node(nodeID)
	if gn == nil {
		return nil, false
	}
	switch gn.Type {
	case NodeSequence:
		if end-start != 1 || atoms[start] != nodeID {
			return nil, false
		}
		cp, _ := dtree.CopyRecursiveAlloc(src[start], alloc)
		return cp, true
	case NodeTerminal:
		if start != end {
			return nil, false
		}
		leaf := alloc.New(dtree.KindTerminal)
		leaf.GrammarID = nodeID
		leaf.Content = sampleTerminal(gn)
		return leaf, true
	default:
		if parseNodeWrapperPrefix(gn) && len(gn.Expansions) == 1 {
			if e := pg.expansion(gn.Expansions[0]); e != nil && len(e.Nodes) == 1 {
				return buildFromChart(pg, chart, e.Nodes[0], start, end, atoms, src, alloc)
			}
		}
		for _, eid := range gn.Expansions {
			e := pg.expansion(eid)
			if e == nil {
				continue
			}
			children, ok := tryMatchSeq(pg, chart, e.Nodes, start, end, atoms, src, alloc)
			if ok {
				node := alloc.New(dtree.KindNonTerminal)
				node.GrammarID = nodeID
				node.Children = children
				return node, true
			}
		}
		return nil, false
	}
}

func candidateEnds(pg *Graph, chart *earleyChart, nodeID int64, start, limit int) []int {
	n := pg.node(nodeID)
	if n == nil {
		return nil
	}
	switch n.Type {
	case NodeTerminal:
		return []int{start}
	case NodeSequence:
		if start < limit && chart.atoms[start] == nodeID {
			return []int{start + 1}
		}
		return nil
	default:
		ends := append([]int(nil), chart.spans(nodeID, start)...)
		sort.Ints(ends)
		return ends
	}
}

func tryMatchSeq(pg *Graph, chart *earleyChart, nodes []int64, start, end int, atoms []int64, src []*dtree.Node, alloc *dtree.Set) ([]*dtree.Node, bool) {
	if len(nodes) == 0 {
		if start == end {
			return []*dtree.Node{}, true
		}
		return nil, false
	}
	first := nodes[0]
	for _, e0 := range candidateEnds(pg, chart, first, start, end) {
		if e0 > end {
			continue
		}
		rest, ok := tryMatchSeq(pg, chart, nodes[1:], e0, end, atoms, src, alloc)
		if !ok {
			continue
		}
		firstNode, ok2 := buildFromChart(pg, chart, first, start, e0, atoms, src, alloc)
		if !ok2 {
			continue
		}
		return append([]*dtree.Node{firstNode}, rest...), true
	}
	return nil, false
}
