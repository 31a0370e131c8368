package input

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddEntryAndConvert(t *testing.T) {
	in := New(100)
	in.AddEntry("a")
	in.AddEntry("b")
	in.AddEntry("c")

	require.Equal(t, int64(3), in.Length())
	require.Equal(t, "abc", in.ConvertToString())
	require.Equal(t, "['a', 'b', 'c']", in.ConvertToPython())
}

func TestTrim(t *testing.T) {
	in := New(1)
	in.AddEntry("a")
	in.AddEntry("b")
	require.Equal(t, int64(2), in.SequenceLength())

	in.SetTrimmedLength(1)
	require.Equal(t, int64(1), in.SequenceLength())

	in.ClearTrim()
	require.Equal(t, int64(2), in.SequenceLength())
}

func TestIndividualScoresGatedByFlag(t *testing.T) {
	in := New(1)
	in.AddPrimaryScoreIndividual(1.0)
	require.Empty(t, in.PrimaryScoreIndividual())

	in.EnableIndividualScores()
	in.AddPrimaryScoreIndividual(1.0)
	in.AddPrimaryScoreIndividual(2.0)
	require.Equal(t, []float64{1.0, 2.0}, in.PrimaryScoreIndividual())

	in.FreeMemory()
	require.Equal(t, []float64{1.0, 2.0}, in.PrimaryScoreIndividual())

	in.Flag.Clear(FlagKeepIndividualScores)
	in.FreeMemory()
	require.Empty(t, in.PrimaryScoreIndividual())
}

func TestFindIndividualScoreRangesWithoutChanges(t *testing.T) {
	ranges := FindIndividualScoreRangesWithoutChanges([]float64{1, 1, 1, 2, 2, 3}, 0)
	require.Equal(t, []ScoreRange{
		{Begin: 0, Length: 3, Score: 1},
		{Begin: 3, Length: 2, Score: 2},
		{Begin: 5, Length: 1, Score: 3},
	}, ranges)
}

func TestCanDelete(t *testing.T) {
	in := New(1)
	require.True(t, in.CanDelete())
	in.IncrementDerivedInputs()
	require.False(t, in.CanDelete())
}
