package grammar

// Prune marks every node that is not producing or not reachable, and
// every expansion that references a removed node, for removal, then
// propagates the removal up and down a work stack until a fixed point
// (spec §4.2.4). It then physically deletes the marked nodes and
// expansions. The root is never removed.
func Prune(g *Graph) {
	for _, n := range g.Nodes {
		if n.ID != g.Root && (!n.Reachable || !n.Producing) {
			n.Remove = true
		}
	}
	for _, e := range g.Expansions {
		if !e.Producing {
			e.Remove(g)
		}
	}

	work := make([]int64, 0, len(g.Nodes))
	for id, n := range g.Nodes {
		if n.Remove {
			work = append(work, id)
		}
	}

	removedExpansions := make(map[int64]bool)
	for _, e := range g.Expansions {
		if !e.Producing {
			removedExpansions[e.ID] = true
		}
	}

	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		n := g.node(id)
		if n == nil {
			continue
		}

		// Any expansion referencing this node is removed too.
		for _, e := range g.Expansions {
			if removedExpansions[e.ID] {
				continue
			}
			for _, nid := range e.Nodes {
				if nid == id {
					removedExpansions[e.ID] = true
					parent := g.node(e.Parent)
					if parent != nil && parent.ID != g.Root && !parent.Remove {
						// a parent losing its only remaining expansion
						// may itself become removable; re-check below.
						if allExpansionsRemoved(g, parent, removedExpansions) {
							parent.Remove = true
							work = append(work, parent.ID)
						}
					}
					break
				}
			}
		}

		// An expansion whose parent was removed is removed too.
		for _, eid := range n.Expansions {
			if removedExpansions[eid] {
				continue
			}
			removedExpansions[eid] = true
		}

		// A node that becomes parentless (other than root) is removed.
		if id != g.Root && len(n.ParentExpansions) > 0 {
			allGone := true
			for _, eid := range n.ParentExpansions {
				if !removedExpansions[eid] {
					allGone = false
					break
				}
			}
			if allGone && !n.Remove {
				n.Remove = true
				work = append(work, id)
			}
		}
	}

	for id, n := range g.Nodes {
		if n.Remove {
			delete(g.Nodes, id)
			delete(g.NonTerminals, id)
			delete(g.Terminals, id)
		}
	}
	for id := range removedExpansions {
		delete(g.Expansions, id)
	}
	for _, n := range g.Nodes {
		n.Expansions = filterExisting(g, n.Expansions, removedExpansions)
		n.ParentExpansions = filterExisting(g, n.ParentExpansions, removedExpansions)
	}
}

func allExpansionsRemoved(g *Graph, n *Node, removed map[int64]bool) bool {
	for _, eid := range n.Expansions {
		if !removed[eid] {
			return false
		}
	}
	return true
}

func filterExisting(g *Graph, ids []int64, removed map[int64]bool) []int64 {
	out := ids[:0]
	for _, id := range ids {
		if !removed[id] {
			out = append(out, id)
		}
	}
	return out
}

// Remove marks e for deletion; Prune performs the physical erasure.
func (e *Expansion) Remove(g *Graph) {
	e.Producing = false
}
