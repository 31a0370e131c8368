// Package input implements the Input form (spec §3, §4.6): a token
// sequence with links to its derivation tree and test, parent-split
// metadata, scoring, and the flag bitset from original_source's
// Types.h/Input.h.
package input

import (
	"strings"
	"time"

	"github.com/timefuzz-go/timefuzz/internal/dtree"
	"github.com/timefuzz-go/timefuzz/internal/forms"
)

// Flag is Input's status bitset, carried in full from
// original_source/include/Input.h's Flags enum (spec §3 names only a
// subset; SPEC_FULL.md §4 keeps the complete catalogue).
type Flag uint64

const (
	FlagDuplicate Flag = 1 << (iota + 2)
	FlagDeltaDebugged
	FlagGeneratedGrammar
	FlagGeneratedGrammarParent
	FlagGeneratedGrammarParentBacktrack
	FlagGeneratedDeltaDebugging
	FlagKeepIndividualScores
)

func (f Flag) Has(bit Flag) bool    { return f&bit != 0 }
func (f *Flag) Set(bit Flag)        { *f |= bit }
func (f *Flag) Clear(bit Flag)      { *f &^= bit }

// ParentInfo records how this input was split or derived from its
// parent (spec §3's "parent-input split metadata").
type ParentInfo struct {
	ParentInput forms.FormID
	Segments    []dtree.Segment
	Complement  bool
	Backtrack   int32
}

// ScoreRange is a maximal run of constant score, returned by
// FindIndividualScoreRangesWithoutChanges.
type ScoreRange struct {
	Begin, Length int64
	Score         float64
}

// Input is the token-sequence form the fuzzing loop generates, tests,
// and scores.
type Input struct {
	ID   forms.FormID
	Flag Flag

	sequence []string

	TreeID forms.FormID
	TestID forms.FormID

	Parent ParentInfo

	HasFinished bool
	Trimmed     bool
	trimmedLength int64

	ExecutionTime time.Duration
	exitCode      int32

	primaryScore   float64
	secondaryScore float64

	primaryIndividual   []float64
	secondaryIndividual []float64

	GenerationID forms.FormID
	DerivedInputs uint64
	DerivedFails  uint64
	GenerationTime time.Duration
	retries        int16

	// reactionTime and output supplement the scripting-surface
	// accessor list in spec §6 (original_source's lua_GetReactionTime*
	// / lua_GetOutput). output holds whatever SetOutput was given; this
	// type does not consult the session's Settings.StoreOutput flag.
	reactionTime []time.Duration
	output       []byte

	pythonString    string
	pythonConverted bool
	joinedString    string
	joinedConverted bool
}

func New(id forms.FormID) *Input {
	return &Input{ID: id, exitCode: -1, trimmedLength: -1}
}

// AddEntry appends a token to the sequence, invalidating cached string
// conversions.
func (in *Input) AddEntry(tok string) {
	in.sequence = append(in.sequence, tok)
	in.pythonConverted = false
	in.joinedConverted = false
}

func (in *Input) Length() int64 { return int64(len(in.sequence)) }

// SequenceLength returns the length used for generation bookkeeping:
// the trimmed length if the input has been trimmed, else the full
// length.
func (in *Input) SequenceLength() int64 {
	if in.Trimmed && in.trimmedLength >= 0 {
		return in.trimmedLength
	}
	return in.Length()
}

func (in *Input) At(i int64) string { return in.sequence[i] }

func (in *Input) Tokens() []string { return in.sequence }

// ConvertToString materializes the sequence as one concatenated
// string, caching the result until the next AddEntry.
func (in *Input) ConvertToString() string {
	if in.joinedConverted {
		return in.joinedString
	}
	in.joinedString = strings.Join(in.sequence, "")
	in.joinedConverted = true
	return in.joinedString
}

// ConvertToPython materializes a "python list" style representation,
// e.g. ['a', 'b', 'c'].
func (in *Input) ConvertToPython() string {
	if in.pythonConverted {
		return in.pythonString
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, t := range in.sequence {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(t, "'", "\\'"))
		b.WriteByte('\'')
	}
	b.WriteByte(']')
	in.pythonString = b.String()
	in.pythonConverted = true
	return in.pythonString
}

func (in *Input) SetTrimmedLength(n int64) {
	in.Trimmed = true
	in.trimmedLength = n
}

func (in *Input) ClearTrim() {
	in.Trimmed = false
	in.trimmedLength = -1
}

func (in *Input) ExitCode() int32     { return in.exitCode }
func (in *Input) SetExitCode(c int32) { in.exitCode = c }

func (in *Input) Output() []byte     { return in.output }
func (in *Input) SetOutput(b []byte) { in.output = b }

func (in *Input) PrimaryScore() float64   { return in.primaryScore }
func (in *Input) SecondaryScore() float64 { return in.secondaryScore }

func (in *Input) ReactionTime() []time.Duration { return in.reactionTime }
func (in *Input) AddReactionTime(d time.Duration) {
	in.reactionTime = append(in.reactionTime, d)
}

// EnableIndividualScores turns on per-position score tracking,
// matching KeepIndividualScores gating FreeMemory's retention.
func (in *Input) EnableIndividualScores() {
	in.Flag.Set(FlagKeepIndividualScores)
}

func (in *Input) AddPrimaryScoreIndividual(v float64) {
	if in.Flag.Has(FlagKeepIndividualScores) {
		in.primaryIndividual = append(in.primaryIndividual, v)
	}
}

func (in *Input) AddSecondaryScoreIndividual(v float64) {
	if in.Flag.Has(FlagKeepIndividualScores) {
		in.secondaryIndividual = append(in.secondaryIndividual, v)
	}
}

func (in *Input) PrimaryScoreIndividual() []float64   { return in.primaryIndividual }
func (in *Input) SecondaryScoreIndividual() []float64 { return in.secondaryIndividual }

// FreeMemory discards the per-position score arrays unless
// KeepIndividualScores is set (spec §4.6).
func (in *Input) FreeMemory() {
	if in.Flag.Has(FlagKeepIndividualScores) {
		return
	}
	in.primaryIndividual = nil
	in.secondaryIndividual = nil
}

func (in *Input) SetParent(parentID forms.FormID, segments []dtree.Segment, complement bool, backtrack int32) {
	in.Parent = ParentInfo{ParentInput: parentID, Segments: segments, Complement: complement, Backtrack: backtrack}
}

func (in *Input) IncrementDerivedInputs() { in.DerivedInputs++ }
func (in *Input) IncrementDerivedFails()  { in.DerivedFails++ }

// FindIndividualScoreRangesWithoutChanges returns the maximal runs of
// constant primary score, capped at max ranges, used by reducers to
// find segments safe to drop (spec §4.6).
func FindIndividualScoreRangesWithoutChanges(scores []float64, max int) []ScoreRange {
	var ranges []ScoreRange
	i := 0
	for i < len(scores) && (max <= 0 || len(ranges) < max) {
		j := i + 1
		for j < len(scores) && scores[j] == scores[i] {
			j++
		}
		ranges = append(ranges, ScoreRange{Begin: int64(i), Length: int64(j - i), Score: scores[i]})
		i = j
	}
	return ranges
}

// CanDelete reports whether this input may be physically erased (spec
// §3's lifecycle rule): not while it still has outstanding derived
// inputs tracked against it.
func (in *Input) CanDelete() bool {
	return in.DerivedInputs == 0
}
