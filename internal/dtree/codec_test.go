package dtree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	root := &Node{Kind: KindNonTerminal, GrammarID: 1}
	a := &Node{Kind: KindSequence, GrammarID: 2}
	term := &Node{Kind: KindTerminal, GrammarID: 3, Content: "x"}
	a.Children = []*Node{term}
	root.Children = []*Node{a}

	tr := New(1)
	tr.ID = 77
	tr.Root = root
	tr.Seed = 5
	tr.TargetLength = 1
	tr.SourceTreeID = 9
	tr.Parent = ParentInfo{
		Method:       ParentMethodExtension,
		ParentID:     9,
		Segments:     []Segment{{Begin: 0, Length: 1}},
		ParentLength: 3,
	}
	tr.Recount()

	b := store.GetBuffer()
	defer store.PutBuffer(b)
	writeTreeEnvelope(t, b, tr)
	tr.EncodeBody(b)

	s := store.GetStream(b.Bytes())
	defer store.PutStream(s)
	env := readTreeEnvelope(t, s)

	out := New(0)
	out.DecodeBody(s, env, store.NewResolver(store.New()))

	require.NoError(t, s.Err())
	require.Equal(t, tr.ID, out.ID)
	require.Equal(t, tr.NodeCount, out.NodeCount)
	require.Equal(t, tr.SequenceNodeCount, out.SequenceNodeCount)
	require.Equal(t, tr.Valid, out.Valid)
	require.Equal(t, tr.Parent.Method, out.Parent.Method)
	require.Equal(t, tr.Parent.Segments, out.Parent.Segments)
	require.Equal(t, tr.Tokens(), out.Tokens())
}

func writeTreeEnvelope(t *testing.T, b *store.Buffer, tr *Tree) {
	t.Helper()
	env := tr.FormEnvelope()
	b.WriteI32(env.Version)
	b.WriteU64(uint64(env.ID))
	b.WriteU64(uint64(env.Flags))
	b.WriteU64(uint64(len(env.FlagValues)))
}

func readTreeEnvelope(t *testing.T, s *store.Stream) forms.Envelope {
	t.Helper()
	env := forms.Envelope{Valid: true}
	env.Version = s.ReadI32()
	env.ID = forms.FormID(s.ReadU64())
	env.Flags = forms.Flag(s.ReadU64())
	n := s.ReadU64()
	for i := uint64(0); i < n; i++ {
		_ = s.ReadU64()
	}
	return env
}
