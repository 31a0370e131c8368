package input

import "github.com/timefuzz-go/timefuzz/internal/collab"

var _ collab.InputView = (*Input)(nil)
var _ collab.InputMutator = (*Input)(nil)

func (in *Input) TrimmedLength() int64 {
	if !in.Trimmed {
		return -1
	}
	return in.trimmedLength
}

func (in *Input) ExecutionTimeNanos() int64 { return in.ExecutionTime.Nanoseconds() }

func (in *Input) Retries() int { return int(in.retries) }

func (in *Input) ReactionTimesNanos() []int64 {
	out := make([]int64, len(in.reactionTime))
	for i, d := range in.reactionTime {
		out[i] = d.Nanoseconds()
	}
	return out
}

func (in *Input) SetPrimaryScore(v float64)   { in.primaryScore = v }
func (in *Input) SetSecondaryScore(v float64) { in.secondaryScore = v }
