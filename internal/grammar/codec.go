package grammar

import (
	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

// classVersion mirrors the GRAM form's classversion (spec §4.5).
const classVersion int32 = 0x1

func (g *Graph) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: classVersion, ID: g.ID}
}

func (g *Graph) FourCC() forms.FourCC { return forms.TagGrammar }

func (g *Graph) EncodeBody(b *store.Buffer) {
	b.WriteI64(g.Root)
	b.WriteBool(g.Valid)
	b.WriteBool(g.Simple)
	b.WriteI64Seq(g.Rules)
	b.WriteI64(g.nextID)

	b.WriteU64(uint64(len(g.Nodes)))
	for _, n := range g.Nodes {
		encodeGraphNode(b, n)
	}
	b.WriteU64(uint64(len(g.Expansions)))
	for _, e := range g.Expansions {
		encodeGraphExpansion(b, e)
	}

	b.WriteBool(g.ParsePrepared != nil)
	if g.ParsePrepared != nil {
		g.ParsePrepared.EncodeBody(b)
	}
	b.WriteU64(uint64(len(g.ParseNodeFor)))
	for k, v := range g.ParseNodeFor {
		b.WriteI64(k)
		b.WriteI64(v)
	}
}

func encodeGraphNode(b *store.Buffer, n *Node) {
	b.WriteI64(n.ID)
	b.WriteString(n.Name)
	b.WriteU8(uint8(n.Type))
	b.WriteI64Seq(n.Expansions)
	b.WriteI64Seq(n.ParentExpansions)
	b.WriteU32(uint32(n.Flags))
	b.WriteBool(n.Reachable)
	b.WriteBool(n.Producing)
	b.WriteBool(n.Remove)
}

func decodeGraphNode(s *store.Stream) *Node {
	n := &Node{}
	n.ID = s.ReadI64()
	n.Name = s.ReadString()
	n.Type = NodeType(s.ReadU8())
	n.Expansions = s.ReadI64Seq()
	n.ParentExpansions = s.ReadI64Seq()
	n.Flags = Flag(s.ReadU32())
	n.Reachable = s.ReadBool()
	n.Producing = s.ReadBool()
	n.Remove = s.ReadBool()
	return n
}

func encodeGraphExpansion(b *store.Buffer, e *Expansion) {
	b.WriteI64(e.ID)
	b.WriteI64(e.Parent)
	b.WriteI64Seq(e.Nodes)
	b.WriteF64(e.Weight)
	b.WriteBool(e.HasWeight)
	b.WriteU32(uint32(e.Flags))
	b.WriteI32(int32(e.NumNonTerminals))
	b.WriteI32(int32(e.NumSeqProducingNonTerminals))
	b.WriteI32(int32(e.NumTerminals))
	b.WriteBool(e.Producing)
	b.WriteBool(e.Regex != nil)
	if e.Regex != nil {
		b.WriteI64(e.Regex.Child)
		b.WriteI32(int32(e.Regex.LowerBound))
	}
}

func decodeGraphExpansion(s *store.Stream) *Expansion {
	e := &Expansion{}
	e.ID = s.ReadI64()
	e.Parent = s.ReadI64()
	e.Nodes = s.ReadI64Seq()
	e.Weight = s.ReadF64()
	e.HasWeight = s.ReadBool()
	e.Flags = Flag(s.ReadU32())
	e.NumNonTerminals = int(s.ReadI32())
	e.NumSeqProducingNonTerminals = int(s.ReadI32())
	e.NumTerminals = int(s.ReadI32())
	e.Producing = s.ReadBool()
	if s.ReadBool() {
		e.Regex = &RegexInfo{Child: s.ReadI64(), LowerBound: int(s.ReadI32())}
	}
	return e
}

// DecodeBody rebuilds g, including its NonTerminals/Terminals set
// index (spec §3), which is recomputed from each node's Type rather
// than persisted redundantly.
func (g *Graph) DecodeBody(s *store.Stream, env forms.Envelope, r *store.Resolver) {
	g.ID = env.ID
	if env.Version != classVersion {
		return
	}
	g.Nodes = make(map[int64]*Node)
	g.Expansions = make(map[int64]*Expansion)
	g.NonTerminals = make(map[int64]bool)
	g.Terminals = make(map[int64]bool)
	g.ParseNodeFor = make(map[int64]int64)

	g.Root = s.ReadI64()
	g.Valid = s.ReadBool()
	g.Simple = s.ReadBool()
	g.Rules = s.ReadI64Seq()
	g.nextID = s.ReadI64()

	nodeCount := s.ReadU64()
	for i := uint64(0); i < nodeCount && s.Err() == nil; i++ {
		n := decodeGraphNode(s)
		g.Nodes[n.ID] = n
		if n.Type == NodeTerminal {
			g.Terminals[n.ID] = true
		} else {
			g.NonTerminals[n.ID] = true
		}
	}
	expCount := s.ReadU64()
	for i := uint64(0); i < expCount && s.Err() == nil; i++ {
		e := decodeGraphExpansion(s)
		g.Expansions[e.ID] = e
	}

	if s.ReadBool() {
		g.ParsePrepared = newGraph()
		g.ParsePrepared.DecodeBody(s, env, r)
	}
	pnCount := s.ReadU64()
	for i := uint64(0); i < pnCount && s.Err() == nil; i++ {
		k := s.ReadI64()
		v := s.ReadI64()
		g.ParseNodeFor[k] = v
	}
}
