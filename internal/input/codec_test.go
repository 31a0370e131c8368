package input

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := New(101)
	in.AddEntry("a")
	in.AddEntry("b")
	in.SetExitCode(7)
	in.SetTrimmedLength(1)
	in.EnableIndividualScores()
	in.AddPrimaryScoreIndividual(0.5)
	in.SetPrimaryScore(0.9)
	in.AddReactionTime(100)
	in.SetOutput([]byte("hi"))

	b := store.GetBuffer()
	defer store.PutBuffer(b)
	writeEnvelope(t, b, in)
	in.EncodeBody(b)

	s := store.GetStream(b.Bytes())
	defer store.PutStream(s)
	env := readEnvelopeHelper(t, s)

	out := New(0)
	out.DecodeBody(s, env, store.NewResolver(store.New()))

	require.NoError(t, s.Err())
	require.Equal(t, in.Tokens(), out.Tokens())
	require.Equal(t, in.ExitCode(), out.ExitCode())
	require.Equal(t, in.TrimmedLength(), out.TrimmedLength())
	require.Equal(t, in.PrimaryScore(), out.PrimaryScore())
	require.Equal(t, in.PrimaryScoreIndividual(), out.PrimaryScoreIndividual())
	require.Equal(t, in.Output(), out.Output())
}

// writeEnvelope/readEnvelopeHelper exercise the same envelope format
// store.Write/Load use internally, without depending on unexported
// store symbols.
func writeEnvelope(t *testing.T, b *store.Buffer, in *Input) {
	t.Helper()
	env := in.FormEnvelope()
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
