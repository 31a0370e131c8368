package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/dtree"
)

// TestDeriveSingleTerminal is spec §8 scenario 1.
func TestDeriveSingleTerminal(t *testing.T) {
	g, err := ParseText(`Grammar('start := "a")`)
	require.NoError(t, err)
	require.True(t, g.Valid)

	alloc := dtree.ForWorker(1)
	tree := Derive(g, 1, 1, alloc)
	require.True(t, tree.Valid)
	require.Equal(t, []string{"a"}, tree.Tokens())
}

// TestDeriveSimpleGrammarKleenePlus is spec §8 scenario 2: 'start :=
// 'SEQ_x ~ 'start | 'SEQ_x with 'SEQ_x := "x" collapses to a
// Kleene-plus regex, and Derive(T=3) yields exactly three "x" atoms.
func TestDeriveSimpleGrammarKleenePlus(t *testing.T) {
	g, err := ParseText(`Grammar(
		'start := 'SEQ_x ~ 'start | 'SEQ_x,
		'SEQ_x := "x"
	)`)
	require.NoError(t, err)
	require.True(t, g.Valid)
	require.True(t, g.Simple)

	alloc := dtree.ForWorker(2)
	tree := Derive(g, 3, 7, alloc)
	require.True(t, tree.Valid)
	require.EqualValues(t, 3, tree.SequenceNodeCount)
	require.Equal(t, []string{"x", "x", "x"}, tree.Tokens())
}

func parseSeqXGrammar(t *testing.T) *Graph {
	t.Helper()
	g, err := ParseText(`Grammar(
		'start := 'SEQ_x ~ 'start | 'SEQ_x,
		'SEQ_x := "x"
	)`)
	require.NoError(t, err)
	require.True(t, g.Valid)
	require.True(t, g.Simple)
	return g
}

// TestExtractSimpleGrammar is spec §8 scenario 3.
func TestExtractSimpleGrammar(t *testing.T) {
	g := parseSeqXGrammar(t)
	alloc := dtree.ForWorker(3)
	source := Derive(g, 3, 11, alloc)
	require.True(t, source.Valid)
	require.EqualValues(t, 3, source.SequenceNodeCount)

	dest := Extract(g, source, []dtree.Segment{{Begin: 1, Length: 1}}, 3, false, alloc)
	require.True(t, dest.Valid)
	require.Equal(t, []string{"x"}, dest.Tokens())
}

// TestExtendWithoutBacktrack is spec §8 scenario 4.
func TestExtendWithoutBacktrack(t *testing.T) {
	g := parseSeqXGrammar(t)
	alloc := dtree.ForWorker(4)
	source := Derive(g, 3, 13, alloc)
	require.True(t, source.Valid)
	source.SourceTreeID = 101

	dest := Extend(g, source, ExtendParams{TargetLength: 5, Seed: 17}, alloc)
	require.True(t, dest.Valid)
	require.Equal(t, []string{"x", "x", "x", "x", "x"}, dest.Tokens())
	require.Equal(t, dtree.ParentMethodExtension, dest.Parent.Method)
	require.EqualValues(t, 101, dest.Parent.ParentID)
}

// TestExtendWithoutBacktrackPreservesGeneralPrefix guards against
// Extend discarding the source tree instead of growing it: unlike
// parseSeqXGrammar's single-terminal alphabet (where a rederived
// prefix happens to look identical to a preserved one), 'item here
// alternates between "a" and "b", so replacing the source's subtree
// with a fresh derivation would be overwhelmingly likely to change the
// first few tokens. The weight annotations keep this grammar out of
// the simple/regex fast path, exercising the general (non-root) anchor
// search and the wrap-based growth it drives.
func TestExtendWithoutBacktrackPreservesGeneralPrefix(t *testing.T) {
	g, err := ParseText(`Grammar(
		'start := 'SEQ_item ~ 'start ~ 'WGT_1.0 | 'SEQ_item ~ 'WGT_1.0,
		'SEQ_item := "a" | "b"
	)`)
	require.NoError(t, err)
	require.True(t, g.Valid)
	require.False(t, g.Simple)

	alloc := dtree.ForWorker(5)
	source := Derive(g, 3, 23, alloc)
	require.True(t, source.Valid)
	require.EqualValues(t, 3, source.SequenceNodeCount)
	source.SourceTreeID = 202
	prefix := source.Tokens()

	dest := Extend(g, source, ExtendParams{TargetLength: 5, Seed: 29}, alloc)
	require.True(t, dest.Valid)
	require.GreaterOrEqual(t, len(dest.Tokens()), len(prefix))
	require.Equal(t, prefix, dest.Tokens()[:len(prefix)])
	require.Equal(t, dtree.ParentMethodExtension, dest.Parent.Method)
	require.EqualValues(t, 202, dest.Parent.ParentID)
}

func TestParseInvalidGrammarMissingStart(t *testing.T) {
	g, err := ParseText(`Grammar('foo := "a")`)
	require.NoError(t, err)
	require.False(t, g.Valid)
}

func TestParseUnbalancedParens(t *testing.T) {
	_, err := ParseText(`Grammar('start := "a"`)
	require.Error(t, err)
}

func TestWeightedExpansionParses(t *testing.T) {
	g, err := ParseText(`Grammar('start := "a" ~ 'WGT_2.5 | "b" ~ 'WGT_1.0)`)
	require.NoError(t, err)
	require.True(t, g.Valid)
	require.False(t, g.Simple)
}
