package input

import (
	"github.com/timefuzz-go/timefuzz/internal/dtree"
	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

// classVersion mirrors original_source/include/Input.h's classversion
// 0x3, dispatched on by DecodeBody.
const classVersion int32 = 0x3

func (in *Input) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: classVersion, ID: in.ID}
}

func (in *Input) FourCC() forms.FourCC { return forms.TagInput }

func (in *Input) EncodeBody(b *store.Buffer) {
	b.WriteStringSeq(in.sequence)
	b.WriteU64(uint64(in.Flag))
	b.WriteU64(uint64(in.TreeID))
	b.WriteU64(uint64(in.TestID))

	b.WriteU64(uint64(in.Parent.ParentInput))
	b.WriteU64(uint64(len(in.Parent.Segments)))
	for _, s := range in.Parent.Segments {
		b.WriteI64(s.Begin)
		b.WriteI64(s.Length)
	}
	b.WriteBool(in.Parent.Complement)
	b.WriteI32(in.Parent.Backtrack)

	b.WriteBool(in.HasFinished)
	b.WriteBool(in.Trimmed)
	b.WriteI64(in.trimmedLength)
	b.WriteDuration(in.ExecutionTime)
	b.WriteI32(in.exitCode)

	b.WriteF64(in.primaryScore)
	b.WriteF64(in.secondaryScore)
	if in.Flag.Has(FlagKeepIndividualScores) {
		b.WriteU64(uint64(len(in.primaryIndividual)))
		for _, v := range in.primaryIndividual {
			b.WriteF64(v)
		}
		b.WriteU64(uint64(len(in.secondaryIndividual)))
		for _, v := range in.secondaryIndividual {
			b.WriteF64(v)
		}
	} else {
		b.WriteU64(0)
		b.WriteU64(0)
	}

	b.WriteU64(uint64(in.GenerationID))
	b.WriteU64(in.DerivedInputs)
	b.WriteU64(in.DerivedFails)
	b.WriteDuration(in.GenerationTime)
	b.WriteI32(int32(in.retries))

	b.WriteU64(uint64(len(in.reactionTime)))
	for _, d := range in.reactionTime {
		b.WriteDuration(d)
	}
	b.WriteBytes(in.output)
}

func (in *Input) DecodeBody(s *store.Stream, env forms.Envelope, r *store.Resolver) {
	in.ID = env.ID
	if env.Version != classVersion {
		return
	}
	in.sequence = s.ReadStringSeq()
	in.Flag = Flag(s.ReadU64())
	in.TreeID = forms.FormID(s.ReadU64())
	in.TestID = forms.FormID(s.ReadU64())

	in.Parent.ParentInput = forms.FormID(s.ReadU64())
	n := s.ReadU64()
	in.Parent.Segments = make([]dtree.Segment, 0, n)
	for i := uint64(0); i < n; i++ {
		in.Parent.Segments = append(in.Parent.Segments, dtree.Segment{Begin: s.ReadI64(), Length: s.ReadI64()})
	}
	in.Parent.Complement = s.ReadBool()
	in.Parent.Backtrack = s.ReadI32()

	in.HasFinished = s.ReadBool()
	in.Trimmed = s.ReadBool()
	in.trimmedLength = s.ReadI64()
	in.ExecutionTime = s.ReadDuration()
	in.exitCode = s.ReadI32()

	in.primaryScore = s.ReadF64()
	in.secondaryScore = s.ReadF64()
	pn := s.ReadU64()
	for i := uint64(0); i < pn; i++ {
		in.primaryIndividual = append(in.primaryIndividual, s.ReadF64())
	}
	sn := s.ReadU64()
	for i := uint64(0); i < sn; i++ {
		in.secondaryIndividual = append(in.secondaryIndividual, s.ReadF64())
	}

	in.GenerationID = forms.FormID(s.ReadU64())
	in.DerivedInputs = s.ReadU64()
	in.DerivedFails = s.ReadU64()
	in.GenerationTime = s.ReadDuration()
	in.retries = int16(s.ReadI32())

	rn := s.ReadU64()
	for i := uint64(0); i < rn; i++ {
		in.reactionTime = append(in.reactionTime, s.ReadDuration())
	}
	in.output = s.ReadBytes()

	// TreeID/TestID are only meaningful once every form in the save
	// has been registered, so the check is deferred to an early
	// resolver task (spec §4.5's two-phase resolver) rather than done
	// here against a store that is still mid-load.
	id, treeID, testID := in.ID, in.TreeID, in.TestID
	r.EnqueueEarly(func(st *store.Store) error {
		if treeID != 0 {
			if _, ok := st.Form(treeID); !ok {
				r.Warnf("input %d references missing derivation tree %d", id, treeID)
			}
		}
		if testID != 0 {
			if _, ok := st.Form(testID); !ok {
				r.Warnf("input %d references missing test %d", id, testID)
			}
		}
		return nil
	})
}
