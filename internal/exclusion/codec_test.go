package exclusion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

func TestTreeEncodeDecodeRoundTrip(t *testing.T) {
	tr := New(false)
	tr.ID = 55
	require.True(t, tr.AddInput([]int64{1, 2}, 10, Passing))
	require.True(t, tr.AddInput([]int64{1, 3}, 11, Unfinished))

	b := store.GetBuffer()
	defer store.PutBuffer(b)
	writeTreeEnvelope(t, b, tr)
	tr.EncodeBody(b)

	s := store.GetStream(b.Bytes())
	defer store.PutStream(s)
	env := readTreeEnvelope(t, s)

	out := &Tree{}
	out.DecodeBody(s, env, store.NewResolver(store.New()))

	require.NoError(t, s.Err())
	require.Equal(t, tr.ID, out.ID)
	require.Equal(t, tr.Depth(), out.Depth())
	require.Equal(t, tr.LeafCount(), out.LeafCount())

	hasPrefix, id := out.HasPrefix([]int64{1, 2})
	require.True(t, hasPrefix)
	require.EqualValues(t, 10, id)

	hasPrefix, id = out.HasPrefix([]int64{1, 3})
	require.True(t, hasPrefix)
	require.EqualValues(t, 11, id)

	hasPrefix, _ = out.HasPrefix([]int64{1, 4})
	require.False(t, hasPrefix)
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
