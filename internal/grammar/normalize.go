package grammar

const fixedStartName = "FixedStart"

// NormalizeRoot implements the root-normalization half of spec
// §4.2.6: if the root has more than one expansion, more than one
// child on its single expansion, or resolves to a single terminal, a
// fresh 'FixedStart non-terminal is inserted above it.
func NormalizeRoot(g *Graph) {
	root := g.node(g.Root)
	if root == nil {
		return
	}
	needsWrap := root.Type == NodeTerminal || len(root.Expansions) != 1
	if !needsWrap && len(root.Expansions) == 1 {
		e := g.expansion(root.Expansions[0])
		if e != nil && len(e.Nodes) != 1 {
			needsWrap = true
		}
	}
	if !needsWrap {
		return
	}

	fs := g.newNode(fixedStartName, NodeNonTerminal)
	exp := g.newExpansion(fs.ID)
	exp.Nodes = []int64{g.Root}
	fs.Expansions = []int64{exp.ID}
	root.ParentExpansions = append(root.ParentExpansions, exp.ID)

	g.Root = fs.ID
	GatherFlags(g)
}

// PrepareParseGraph builds g.ParsePrepared: a deep copy of the
// generation graph with a synthetic parse-node inserted between every
// sequence-producing non-terminal and its parents (spec §4.2.6),
// giving the Earley parser a uniform per-atom anchor. Only meaningful
// (and only called) for non-simple grammars.
func PrepareParseGraph(g *Graph) {
	pg := deepCopyGraph(g)

	for id, n := range pg.Nodes {
		if n.Type != NodeSequence {
			continue
		}
		pn := pg.newNode("PN_"+n.Name, NodeNonTerminal)
		exp := pg.newExpansion(pn.ID)
		exp.Nodes = []int64{id}
		pn.Expansions = []int64{exp.ID}
		n.ParentExpansions = append(n.ParentExpansions, exp.ID)

		for _, e := range pg.Expansions {
			if e.ID == exp.ID {
				continue
			}
			for i, nid := range e.Nodes {
				if nid == id {
					e.Nodes[i] = pn.ID
				}
			}
		}
		g.ParseNodeFor[id] = pn.ID
	}

	GatherFlags(pg)
	g.ParsePrepared = pg
}

// deepCopyGraph returns an independent copy of g (same ids, since
// PrepareParseGraph only adds new nodes/expansions on top).
func deepCopyGraph(g *Graph) *Graph {
	cp := newGraph()
	cp.nextID = g.nextID
	cp.Root = g.Root
	cp.Valid = g.Valid
	cp.Simple = g.Simple
	cp.Rules = append([]int64(nil), g.Rules...)

	for id, n := range g.Nodes {
		nc := *n
		nc.Expansions = append([]int64(nil), n.Expansions...)
		nc.ParentExpansions = append([]int64(nil), n.ParentExpansions...)
		cp.Nodes[id] = &nc
		if n.Type == NodeTerminal {
			cp.Terminals[id] = true
		} else {
			cp.NonTerminals[id] = true
		}
	}
	for id, e := range g.Expansions {
		ec := *e
		ec.Nodes = append([]int64(nil), e.Nodes...)
		if e.Regex != nil {
			r := *e.Regex
			ec.Regex = &r
		}
		cp.Expansions[id] = &ec
	}
	return cp
}
