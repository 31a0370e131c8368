package exclusion

import (
	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

// classVersion mirrors the EXCL form's classversion (spec §4.5).
const classVersion int32 = 0x1

func (t *Tree) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: classVersion, ID: t.ID}
}

func (t *Tree) FourCC() forms.FourCC { return forms.TagExclusion }

// EncodeBody writes the tree as a preorder walk from the root: every
// node's id, atom, visit count, decided bit, result, associated input
// id, and child count, followed by its children in map order (order is
// immaterial -- the trie is keyed by atom, not position).
func (t *Tree) EncodeBody(b *store.Buffer) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b.WriteBool(t.disabled)
	b.WriteU64(t.nextNodeID)
	b.WriteI64(t.depth)
	b.WriteI64(t.leafCount)

	var walk func(n *node)
	walk = func(n *node) {
		b.WriteU64(n.id)
		b.WriteI64(n.atom)
		b.WriteU64(n.visits)
		b.WriteBool(n.isLeaf)
		b.WriteU8(uint8(n.result))
		b.WriteU64(uint64(n.inputID))
		b.WriteU64(uint64(len(n.children)))
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
}

func (t *Tree) DecodeBody(s *store.Stream, env forms.Envelope, r *store.Resolver) {
	t.ID = env.ID
	if env.Version != classVersion {
		return
	}
	t.nodes = make(map[uint64]*node)

	t.disabled = s.ReadBool()
	t.nextNodeID = s.ReadU64()
	t.depth = s.ReadI64()
	t.leafCount = s.ReadI64()

	var read func() *node
	read = func() *node {
		n := &node{children: make(map[int64]*node)}
		n.id = s.ReadU64()
		n.atom = s.ReadI64()
		n.visits = s.ReadU64()
		n.isLeaf = s.ReadBool()
		n.result = Verdict(s.ReadU8())
		n.inputID = forms.FormID(s.ReadU64())
		t.nodes[n.id] = n
		count := s.ReadU64()
		for i := uint64(0); i < count && s.Err() == nil; i++ {
			c := read()
			n.children[c.atom] = c
		}
		return n
	}
	t.root = read()
}
