package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

func TestGraphEncodeDecodeRoundTrip(t *testing.T) {
	g, err := ParseText(`Grammar(
		'start := 'SEQ_x ~ 'start | 'SEQ_x,
		'SEQ_x := "x"
	)`)
	require.NoError(t, err)
	require.True(t, g.Valid)
	g.ID = 42

	b := store.GetBuffer()
	defer store.PutBuffer(b)
	writeEnvelopeHelper(t, b, g)
	g.EncodeBody(b)

	s := store.GetStream(b.Bytes())
	defer store.PutStream(s)
	env := readEnvelopeHelper(t, s)

	out := newGraph()
	out.DecodeBody(s, env, store.NewResolver(store.New()))

	require.NoError(t, s.Err())
	require.Equal(t, g.ID, out.ID)
	require.Equal(t, g.Root, out.Root)
	require.Equal(t, g.Valid, out.Valid)
	require.Equal(t, g.Simple, out.Simple)
	require.Equal(t, len(g.Nodes), len(out.Nodes))
	require.Equal(t, len(g.Expansions), len(out.Expansions))
	for id, n := range g.Nodes {
		on, ok := out.Nodes[id]
		require.True(t, ok)
		require.Equal(t, n.Name, on.Name)
		require.Equal(t, n.Type, on.Type)
		require.Equal(t, n.Flags, on.Flags)
	}
}

func writeEnvelopeHelper(t *testing.T, b *store.Buffer, g *Graph) {
	t.Helper()
	env := g.FormEnvelope()
	b.WriteI32(env.Version)
	b.WriteU64(uint64(env.ID))
	b.WriteU64(uint64(env.Flags))
	b.WriteU64(uint64(len(env.FlagValues)))
}

func readEnvelopeHelper(t *testing.T, s *store.Stream) forms.Envelope {
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
