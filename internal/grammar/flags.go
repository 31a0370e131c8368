package grammar

// GatherFlags runs the two mutually recursive producing/reachable/flag
// propagation passes from g.Root (spec §4.2.3), using a traversal set
// to break cycles. A node currently being visited is treated as
// non-producing only for the duration of that visit; a final pass then
// re-evaluates the expansions a cycle cut off, so a recursive
// alternative such as 'start := 'x ~ 'start is producing once 'start
// itself is, while a purely self-cycling expansion stays non-producing.
func GatherFlags(g *Graph) {
	visiting := make(map[int64]bool)
	done := make(map[int64]bool)

	var visitNode func(id int64) bool
	var visitExpansion func(id int64) bool

	visitNode = func(id int64) bool {
		n := g.node(id)
		if n == nil {
			return false
		}
		if n.Type == NodeTerminal {
			n.Reachable = true
			n.Producing = true
			return true
		}
		if visiting[id] {
			return false // cycle: non-producing for this traversal
		}
		if done[id] {
			return n.Producing
		}
		visiting[id] = true
		n.Reachable = true

		producing := false
		var flags Flag
		for _, eid := range n.Expansions {
			if visitExpansion(eid) {
				producing = true
			}
			e := g.expansion(eid)
			flags |= e.Flags
		}
		switch n.Type {
		case NodeNonTerminal:
			flags |= FlagProduceNonTerminals
		case NodeSequence:
			flags |= FlagProduceSequence
		}
		n.Flags = flags
		n.Producing = producing

		delete(visiting, id)
		done[id] = true
		return producing
	}

	visitExpansion = func(id int64) bool {
		e := g.expansion(id)
		if e == nil {
			return false
		}
		if len(e.Nodes) == 0 {
			e.Producing = true
			e.Flags |= FlagProduceEmptyWord
			return true
		}
		if e.Regex != nil && e.Regex.LowerBound == 0 {
			e.Flags |= FlagProduceEmptyWord
		}

		producing := true
		var flags Flag
		numNT, numSeqProd, numTerm := 0, 0, 0
		for _, nid := range e.Nodes {
			n := g.node(nid)
			if n == nil {
				producing = false
				continue
			}
			if !visitNode(nid) {
				producing = false
			}
			flags |= n.Flags
			switch n.Type {
			case NodeTerminal:
				numTerm++
			case NodeNonTerminal:
				numNT++
			case NodeSequence:
				numNT++
				numSeqProd++
			}
		}
		e.Flags |= flags
		e.NumNonTerminals = numNT
		e.NumSeqProducingNonTerminals = numSeqProd
		e.NumTerminals = numTerm
		e.Producing = producing
		return producing
	}

	if g.Root != 0 {
		visitNode(g.Root)
	}

	// Settle Producing to a fixed point: an expansion cut off by a cycle
	// above is producing once every node it references is.
	for changed := true; changed; {
		changed = false
		for _, e := range g.Expansions {
			if e.Producing || !done[e.Parent] || len(e.Nodes) == 0 {
				continue
			}
			producing := true
			for _, nid := range e.Nodes {
				n := g.node(nid)
				producing = producing && n != nil && n.Producing
			}
			if producing {
				e.Producing, g.node(e.Parent).Producing, changed = true, true, true
			}
		}
	}

	// Reachability: anything not reached from the root in the pass
	// above stays unreachable (its zero value), matching spec §4.2.4's
	// precondition for pruning.
}
