package grammar

import (
	"strings"

	"github.com/dlclark/regexp2"
)

const seqNamePrefix = "SEQ"

func isSequenceName(name string) bool {
	return strings.HasPrefix(name, seqNamePrefix)
}

// posixClassPattern recognizes a POSIX-style bracket expression
// wrapping one of the four recognized class names, tolerating the
// whitespace variations a hand-written grammar file tends to contain
// (spec §4.2.1 "insignificant whitespace trimmed outside quoted
// spans" extends, by the same reasoning, to the bracket spelling
// itself). Built once at init; terminalClassFlag reuses it.
var posixClassPattern = regexp2.MustCompile(`^\[:\s*(ascii|alpha|alnum|digit)\s*:\]$`, regexp2.IgnoreCase)

// terminalClassFlag maps a character-class terminal spelling to its
// flag bits (spec §4.2.7 terminal content sampling).
func terminalClassFlag(content string) (Flag, bool) {
	m, err := posixClassPattern.FindStringMatch(content)
	if err != nil || m == nil {
		return 0, false
	}
	switch strings.ToLower(m.GroupByNumber(1).String()) {
	case "ascii":
		return FlagTerminalCharClass | FlagClassASCII, true
	case "alpha":
		return FlagTerminalCharClass | FlagClassAlpha, true
	case "alnum":
		return FlagTerminalCharClass | FlagClassAlnum, true
	case "digit":
		return FlagTerminalCharClass | FlagClassDigit, true
	default:
		return 0, false
	}
}

// buildGraph wires the parsed AST rules into g's node/expansion arenas
// (spec §4.2.2). A rule's left-hand side becomes (or reuses) a
// non-terminal node; each alternative becomes an Expansion; each
// production becomes either a reference to an existing/new
// non-terminal node, a fresh terminal leaf, or a weight annotation.
func buildGraph(g *Graph, rules []astRule) error {
	// Pass 1: register every LHS up front so forward references within
	// alternatives resolve to the same node.
	for _, r := range rules {
		getOrCreateNonTerminal(g, r.lhs)
	}

	for _, r := range rules {
		lhsNode := getOrCreateNonTerminal(g, r.lhs)
		g.Rules = append(g.Rules, lhsNode.ID)

		for _, alt := range r.alts {
			exp := g.newExpansion(lhsNode.ID)
			lhsNode.Expansions = append(lhsNode.Expansions, exp.ID)

			for _, p := range alt.productions {
				switch {
				case p.isWeight:
					exp.Weight = p.weight
					exp.HasWeight = true
				case p.isNonTerminal:
					child := getOrCreateNonTerminal(g, p.name)
					child.ParentExpansions = append(child.ParentExpansions, exp.ID)
					exp.Nodes = append(exp.Nodes, child.ID)
				default:
					term := g.newNode(p.content, NodeTerminal)
					term.Flags |= FlagProduceTerminals
					if cls, ok := terminalClassFlag(p.content); ok {
						term.Flags |= cls
					}
					term.ParentExpansions = append(term.ParentExpansions, exp.ID)
					exp.Nodes = append(exp.Nodes, term.ID)
				}
			}
		}
	}

	start := g.nodeByName("start")
	if start == nil {
		return synErrNoStart
	}
	g.Root = start.ID
	g.Valid = true
	return nil
}

func getOrCreateNonTerminal(g *Graph, name string) *Node {
	if n := g.nodeByName(name); n != nil {
		return n
	}
	typ := NodeNonTerminal
	if isSequenceName(name) {
		typ = NodeSequence
	}
	return g.newNode(name, typ)
}
