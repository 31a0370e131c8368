package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	b := GetBuffer()
	defer PutBuffer(b)
	b.WriteU32(42)
	b.WriteI64(-7)
	b.WriteBool(true)
	b.WriteF64(3.5)
	b.WriteDuration(250 * time.Millisecond)
	b.WriteString("hello")
	b.WriteI64Seq([]int64{1, 2, 3})
	b.WriteStringSeq([]string{"a", "bb"})

	s := GetStream(b.Bytes())
	defer PutStream(s)
	require.Equal(t, uint32(42), s.ReadU32())
	require.Equal(t, int64(-7), s.ReadI64())
	require.Equal(t, true, s.ReadBool())
	require.Equal(t, 3.5, s.ReadF64())
	require.Equal(t, 250*time.Millisecond, s.ReadDuration())
	require.Equal(t, "hello", s.ReadString())
	require.Equal(t, []int64{1, 2, 3}, s.ReadI64Seq())
	require.Equal(t, []string{"a", "bb"}, s.ReadStringSeq())
	require.NoError(t, s.Err())
}

func TestStreamErrorsOnTruncation(t *testing.T) {
	s := GetStream([]byte{1, 2})
	defer PutStream(s)
	s.ReadU64()
	require.Error(t, s.Err())
}
