package dtree

import (
	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

// classVersion mirrors spec §4.5's "Derivation trees of version 0x2
// use a compact internal sub-buffer encoding for their parent-info
// segment list" -- we are that version.
const classVersion int32 = 0x2

func (t *Tree) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: classVersion, ID: t.ID}
}

func (t *Tree) FourCC() forms.FourCC { return forms.TagDerivation }

func (t *Tree) EncodeBody(b *store.Buffer) {
	b.WriteI64(t.NodeCount)
	b.WriteI64(t.SequenceNodeCount)
	b.WriteBool(t.Valid)
	b.WriteBool(t.Regenerate)
	b.WriteI64(t.GrammarID)
	b.WriteU32(t.Seed)
	b.WriteI64(t.TargetLength)
	b.WriteI64(t.SourceTreeID)

	b.WriteU8(uint8(t.Parent.Method))
	b.WriteI64(t.Parent.ParentID)
	encodeParentInfoSegments(b, t.Parent.Segments)
	b.WriteI64(t.Parent.Stop)
	b.WriteBool(t.Parent.Complement)
	b.WriteI64(t.Parent.ParentLength)

	encodeNode(b, t.Root)
}

// encodeParentInfoSegments writes the (begin,length) list through its
// own length-prefixed sub-buffer, per the compact parent-info encoding
// spec §4.5 calls out for version 0x2 derivation trees -- this keeps
// the segment list independently skippable without re-walking the
// node tree that follows it.
func encodeParentInfoSegments(b *store.Buffer, segs []Segment) {
	sub := store.GetBuffer()
	defer store.PutBuffer(sub)
	sub.WriteU64(uint64(len(segs)))
	for _, s := range segs {
		sub.WriteI64(s.Begin)
		sub.WriteI64(s.Length)
	}
	b.WriteBytes(sub.Bytes())
}

func decodeParentInfoSegments(s *store.Stream) []Segment {
	raw := s.ReadBytes()
	sub := store.GetStream(raw)
	defer store.PutStream(sub)
	n := sub.ReadU64()
	out := make([]Segment, 0, n)
	for i := uint64(0); i < n && sub.Err() == nil; i++ {
		out = append(out, Segment{Begin: sub.ReadI64(), Length: sub.ReadI64()})
	}
	return out
}

// encodeNode writes a preorder traversal: kind, grammar-node id,
// content (terminal only), child count, children.
func encodeNode(b *store.Buffer, n *Node) {
	if n == nil {
		b.WriteBool(false)
		return
	}
	b.WriteBool(true)
	b.WriteU8(uint8(n.Kind))
	b.WriteI64(n.GrammarID)
	b.WriteString(n.Content)
	b.WriteU64(uint64(len(n.Children)))
	for _, c := range n.Children {
		encodeNode(b, c)
	}
}

func decodeNode(s *store.Stream) *Node {
	if !s.ReadBool() {
		return nil
	}
	n := &Node{Kind: Kind(s.ReadU8()), GrammarID: s.ReadI64(), Content: s.ReadString()}
	count := s.ReadU64()
	if count > 0 {
		n.Children = make([]*Node, 0, count)
		for i := uint64(0); i < count && s.Err() == nil; i++ {
			n.Children = append(n.Children, decodeNode(s))
		}
	}
	return n
}

// DecodeBody reconstructs t with plain allocation (spec §4.3's
// CopyRecursive shape) rather than a slab: a loaded tree's nodes are
// not on the hot derive/extract/extend path until the caller chooses
// to re-derive or re-extract from it.
func (t *Tree) DecodeBody(s *store.Stream, env forms.Envelope, r *store.Resolver) {
	t.ID = env.ID
	if env.Version != classVersion {
		return
	}
	t.NodeCount = s.ReadI64()
	t.SequenceNodeCount = s.ReadI64()
	t.Valid = s.ReadBool()
	t.Regenerate = s.ReadBool()
	t.GrammarID = s.ReadI64()
	t.Seed = s.ReadU32()
	t.TargetLength = s.ReadI64()
	t.SourceTreeID = s.ReadI64()

	t.Parent.Method = ParentMethod(s.ReadU8())
	t.Parent.ParentID = s.ReadI64()
	t.Parent.Segments = decodeParentInfoSegments(s)
	t.Parent.Stop = s.ReadI64()
	t.Parent.Complement = s.ReadBool()
	t.Parent.ParentLength = s.ReadI64()

	t.Root = decodeNode(s)
}
