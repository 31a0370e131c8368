package exclusion

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/forms"
)

func TestAddInputAndHasPrefix(t *testing.T) {
	tr := New(false)
	require.True(t, tr.AddInput([]int64{1, 2, 3}, forms.FormID(100), Failing))

	ok, id := tr.HasPrefix([]int64{1, 2, 3})
	require.True(t, ok)
	require.Equal(t, forms.FormID(100), id)

	ok, id = tr.HasPrefix([]int64{1, 2, 3, 4, 5})
	require.True(t, ok)
	require.Equal(t, forms.FormID(100), id)

	ok, _ = tr.HasPrefix([]int64{1, 2})
	require.False(t, ok)

	ok, _ = tr.HasPrefix([]int64{9})
	require.False(t, ok)
}

func TestDecidedPrefixPrunesDescendantsAndCountsLeaves(t *testing.T) {
	tr := New(false)
	tr.AddInput([]int64{1, 2, 3}, forms.FormID(1), Passing)
	require.EqualValues(t, 1, tr.LeafCount())

	// A second add under the now-decided prefix is a no-op: the input
	// is already subsumed.
	ok := tr.AddInput([]int64{1, 2, 3, 4}, forms.FormID(2), Failing)
	require.False(t, ok)
	require.EqualValues(t, 1, tr.LeafCount())
}

func TestUnfinishedDoesNotPrune(t *testing.T) {
	tr := New(false)
	tr.AddInput([]int64{1, 2}, forms.FormID(7), Unfinished)
	require.EqualValues(t, 0, tr.LeafCount())

	// An exact-length repeat of the unfinished attempt is reported as
	// already decided (blocks repetition), but the prefix is not
	// subsumed -- AddInput can still record a different outcome at the
	// same node.
	ok, id := tr.HasPrefix([]int64{1, 2})
	require.True(t, ok)
	require.Equal(t, forms.FormID(7), id)

	// A longer continuation is not blocked -- Unfinished only blocks
	// exact-length repetition.
	ok, _ = tr.HasPrefix([]int64{1, 2, 3})
	require.False(t, ok)
}

func TestUndefinedDoesNotDecide(t *testing.T) {
	tr := New(false)
	tr.AddInput([]int64{1, 2}, forms.FormID(3), Undefined)

	ok, _ := tr.HasPrefix([]int64{1, 2})
	require.False(t, ok)
}

func TestHasPrefixAndShortestExtension(t *testing.T) {
	tr := New(false)
	tr.AddInput([]int64{1, 2, 3}, forms.FormID(42), Failing)

	hasPrefix, _, hasExt, extID := tr.HasPrefixAndShortestExtension([]int64{1})
	require.False(t, hasPrefix)
	require.True(t, hasExt)
	require.Equal(t, forms.FormID(42), extID)
}

func TestDisabledTreeIsNoOp(t *testing.T) {
	tr := New(true)
	ok := tr.AddInput([]int64{1, 2, 3}, forms.FormID(1), Failing)
	require.False(t, ok)

	ok, _ = tr.HasPrefix([]int64{1, 2, 3})
	require.False(t, ok)
}

func TestExampleScenario(t *testing.T) {
	// spec §8 scenario 5.
	tr := New(false)
	a := intern("a")
	b := intern("b")
	c := intern("c")
	d := intern("d")

	idAB := forms.FormID(10)
	idAC := forms.FormID(11)
	tr.AddInput([]int64{a, b}, idAB, Passing)
	tr.AddInput([]int64{a, c}, idAC, Unfinished)

	ok, id := tr.HasPrefix([]int64{a, b, 999})
	require.True(t, ok)
	require.Equal(t, idAB, id)

	ok, id = tr.HasPrefix([]int64{a, c})
	require.True(t, ok)
	require.Equal(t, idAC, id)

	ok, _ = tr.HasPrefix([]int64{a, d})
	require.False(t, ok)
}

// intern is a tiny stand-in for the session's string<->atom bijection,
// local to this test: atoms only need to be distinct per distinct
// string within a single test.
func intern(s string) int64 {
	var h int64
	for _, r := range s {
		h = h*131 + int64(r)
	}
	return h
}
