package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/timefuzz-go/timefuzz/internal/dtree"
)

// TestSimpleGrammarDerivesExactLength is the property test referenced
// by the Open Questions section: every rule DetectSimpleGrammar
// collapses into a Kleene-plus/-star regex must still Derive exactly
// the requested target length of sequence atoms across a spread of
// targets (all at least 1, since Derive rejects smaller targets) and
// seeds, for both a plus-form and a star-form grammar.
func TestSimpleGrammarDerivesExactLength(t *testing.T) {
	grammars := map[string]string{
		"plus": `Grammar(
			'start := 'SEQ_x ~ 'start | 'SEQ_x,
			'SEQ_x := "x"
		)`,
		"star": `Grammar(
			'start := 'SEQ_x ~ 'start |,
			'SEQ_x := "x"
		)`,
	}

	for name, text := range grammars {
		g, err := ParseText(text)
		require.NoErrorf(t, err, "%s: parse", name)
		require.Truef(t, g.Valid, "%s: valid", name)
		require.Truef(t, g.Simple, "%s: simple", name)

		for _, target := range []int64{1, 2, 3, 5, 8} {
			for _, seed := range []uint32{1, 2, 42, 999} {
				alloc := dtree.ForWorker(uint64(seed))
				tree := Derive(g, target, seed, alloc)
				require.Truef(t, tree.Valid, "%s target=%d seed=%d: valid", name, target, seed)
				require.EqualValuesf(t, target, tree.SequenceNodeCount,
					"%s target=%d seed=%d: sequence count", name, target, seed)
				for _, tok := range tree.Tokens() {
					require.Equal(t, "x", tok)
				}
			}
		}
	}
}
