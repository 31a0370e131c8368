package grammar

// simpleKind classifies how a rule collapsed into a regex (spec
// §4.2.5).
type simpleKind uint8

const (
	simpleNone simpleKind = iota
	simpleForward
	simpleStar
	simplePlus
)

type simpleMatch struct {
	kind  simpleKind
	child int64 // B, for star/plus; forward target, for simpleForward
}

// matchSimple reports whether the rule rooted at lhs (a node with a
// single alternative list reachable via lhs.Expansions) matches one of
// the trivial-forwarder, Kleene-star, or Kleene-plus shapes in spec
// §4.2.5. It only inspects shape (arity and which operand equals lhs);
// it does not consult flags, since this runs before a final
// GatherFlags/Prune pass.
func matchSimple(g *Graph, lhs *Node) (simpleMatch, bool) {
	exps := lhs.Expansions
	switch len(exps) {
	case 1:
		e := g.expansion(exps[0])
		if e == nil || e.HasWeight {
			return simpleMatch{}, false
		}
		if len(e.Nodes) == 1 && e.Nodes[0] != lhs.ID {
			return simpleMatch{kind: simpleForward, child: e.Nodes[0]}, true
		}
		return simpleMatch{}, false
	case 2:
		e0 := g.expansion(exps[0])
		e1 := g.expansion(exps[1])
		if e0 == nil || e1 == nil || e0.HasWeight || e1.HasWeight {
			return simpleMatch{}, false
		}
		// Try (singleton-B, pair) in either order for Kleene-plus, and
		// (empty, pair) in either order for Kleene-star.
		for _, pair := range [][2]*Expansion{{e0, e1}, {e1, e0}} {
			single, double := pair[0], pair[1]

			if len(single.Nodes) == 0 && len(double.Nodes) == 2 {
				a, b := double.Nodes[0], double.Nodes[1]
				if a == lhs.ID && b != lhs.ID {
					return simpleMatch{kind: simpleStar, child: b}, true // A := e | A~B
				}
				if b == lhs.ID && a != lhs.ID {
					return simpleMatch{kind: simpleStar, child: a}, true // A := e | B~A
				}
			}

			if len(single.Nodes) == 1 && len(double.Nodes) == 2 {
				b := single.Nodes[0]
				a0, a1 := double.Nodes[0], double.Nodes[1]
				if b == lhs.ID {
					continue // B must differ from A for a plus pattern
				}
				switch {
				case a0 == lhs.ID && a1 == b: // A := B | A~B
					return simpleMatch{kind: simplePlus, child: b}, true
				case a0 == b && a1 == lhs.ID: // A := B | B~A
					return simpleMatch{kind: simplePlus, child: b}, true
				case a0 == b && a1 == b: // A := B | B~B
					return simpleMatch{kind: simplePlus, child: b}, true
				}
			}
		}
		return simpleMatch{}, false
	default:
		return simpleMatch{}, false
	}
}

// DetectSimpleGrammar implements spec §4.2.5. If every non-sequence,
// sequence-producing rule collapses into a trivial forward or a
// Kleene pattern, the grammar is rewritten to use a single
// GrammarExpansionRegex per such rule and marked Simple; GatherFlags
// and Prune are rerun against the rewritten graph.
func DetectSimpleGrammar(g *Graph) {
	type rewrite struct {
		node  *Node
		match simpleMatch
	}
	var rewrites []rewrite

	for _, id := range g.Rules {
		n := g.node(id)
		if n == nil || n.Type == NodeSequence {
			continue
		}
		if !n.Flags.Has(FlagProduceSequence) {
			continue
		}
		m, ok := matchSimple(g, n)
		if !ok {
			return // some sequence-producing rule isn't simple: bail out
		}
		rewrites = append(rewrites, rewrite{node: n, match: m})
	}

	if len(rewrites) == 0 {
		return
	}

	for _, rw := range rewrites {
		switch rw.match.kind {
		case simpleForward:
			redirectReferences(g, rw.node.ID, rw.match.child)
		case simpleStar, simplePlus:
			lowerBound := 0
			if rw.match.kind == simplePlus {
				lowerBound = 1
			}
			exp := g.newExpansion(rw.node.ID)
			exp.Regex = &RegexInfo{Child: rw.match.child, LowerBound: lowerBound}
			exp.Nodes = []int64{rw.match.child}
			for _, eid := range rw.node.Expansions {
				delete(g.Expansions, eid)
			}
			rw.node.Expansions = []int64{exp.ID}
		}
	}

	g.Simple = true
	GatherFlags(g)
	Prune(g)
}

// redirectReferences rewrites every expansion node list so that every
// reference to from is replaced by to, then removes from (spec
// §4.2.5 "every reference to A becomes a reference to B").
func redirectReferences(g *Graph, from, to int64) {
	for _, e := range g.Expansions {
		for i, nid := range e.Nodes {
			if nid == from {
				e.Nodes[i] = to
			}
		}
		if e.Parent == from {
			e.Parent = to
		}
	}
	if fromNode, ok := g.Nodes[from]; ok {
		toNode := g.node(to)
		if toNode != nil {
			toNode.ParentExpansions = append(toNode.ParentExpansions, fromNode.ParentExpansions...)
		}
		delete(g.Nodes, from)
		delete(g.NonTerminals, from)
		delete(g.Terminals, from)
		for _, eid := range fromNode.Expansions {
			delete(g.Expansions, eid)
		}
	}
	if g.Root == from {
		g.Root = to
	}
	for i, rid := range g.Rules {
		if rid == from {
			g.Rules[i] = to
		}
	}
}
