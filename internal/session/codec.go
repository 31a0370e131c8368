package session

import (
	"github.com/timefuzz-go/timefuzz/internal/forms"
	"github.com/timefuzz-go/timefuzz/internal/store"
)

func (s *Settings) EncodeBody(b *store.Buffer) {
	b.WriteBool(s.DisableExclusionTree)
	b.WriteI64(s.GenerationLengthMin)
	b.WriteI64(s.GenerationLengthMax)
	b.WriteI64(s.ExtensionMin)
	b.WriteI64(s.ExtensionMax)
	b.WriteI64(s.BacktrackMin)
	b.WriteI64(s.BacktrackMax)
	b.WriteI64(s.MaxActiveInputs)
	b.WriteI32(int32(s.MaxSimultaneousGeneration))
	b.WriteBool(s.StoreOutput)
}

func (s *Settings) DecodeBody(strm *store.Stream, env forms.Envelope, r *store.Resolver) {
	if env.Version != settingsClassVersion {
		return
	}
	s.DisableExclusionTree = strm.ReadBool()
	s.GenerationLengthMin = strm.ReadI64()
	s.GenerationLengthMax = strm.ReadI64()
	s.ExtensionMin = strm.ReadI64()
	s.ExtensionMax = strm.ReadI64()
	s.BacktrackMin = strm.ReadI64()
	s.BacktrackMax = strm.ReadI64()
	s.MaxActiveInputs = strm.ReadI64()
	s.MaxSimultaneousGeneration = int(strm.ReadI32())
	s.StoreOutput = strm.ReadBool()
}

const sessionClassVersion int32 = 0x1

func (sess *Session) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: sessionClassVersion, ID: forms.SessionID}
}

func (sess *Session) FourCC() forms.FourCC { return forms.TagSession }

func (sess *Session) EncodeBody(b *store.Buffer) {
	b.WriteU64(sess.RuntimeCounter)
	b.WriteString(sess.UniqueName)
	b.WriteI32(sess.SaveNumber)
}

func (sess *Session) DecodeBody(strm *store.Stream, env forms.Envelope, r *store.Resolver) {
	if env.Version != sessionClassVersion {
		return
	}
	sess.RuntimeCounter = strm.ReadU64()
	sess.UniqueName = strm.ReadString()
	sess.SaveNumber = strm.ReadI32()
}

const cohortClassVersion int32 = 0x1

func (c *GenerationCohort) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: cohortClassVersion, ID: c.ID}
}

func (c *GenerationCohort) FourCC() forms.FourCC { return forms.TagGeneration }

func (c *GenerationCohort) EncodeBody(b *store.Buffer) {
	b.WriteI64(c.TargetSize)
	b.WriteI64(c.GeneratedCount)
	b.WriteI64(c.DeltaDebugCount)
	b.WriteI64(c.ActiveInputCount)
	b.WriteI32(int32(c.MaxSimultaneous))
	b.WriteI64(c.GenerationNumber)

	writeIDSet := func(ids []forms.FormID) {
		b.WriteU64(uint64(len(ids)))
		for _, id := range ids {
			b.WriteU64(uint64(id))
		}
	}
	writeIDSet(c.GeneratedInputs)
	writeIDSet(c.DeltaDebugInputs)
	writeIDSet(c.DeltaDebugControllers)
	writeIDSet(c.SourceInputs)
}

func (c *GenerationCohort) DecodeBody(strm *store.Stream, env forms.Envelope, r *store.Resolver) {
	c.ID = env.ID
	if env.Version != cohortClassVersion {
		return
	}
	c.TargetSize = strm.ReadI64()
	c.GeneratedCount = strm.ReadI64()
	c.DeltaDebugCount = strm.ReadI64()
	c.ActiveInputCount = strm.ReadI64()
	c.MaxSimultaneous = int(strm.ReadI32())
	c.GenerationNumber = strm.ReadI64()

	readIDSet := func() []forms.FormID {
		n := strm.ReadU64()
		out := make([]forms.FormID, 0, n)
		for i := uint64(0); i < n; i++ {
			out = append(out, forms.FormID(strm.ReadU64()))
		}
		return out
	}
	c.GeneratedInputs = readIDSet()
	c.DeltaDebugInputs = readIDSet()
	c.DeltaDebugControllers = readIDSet()
	c.SourceInputs = readIDSet()
}

const ddcrClassVersion int32 = 0x1

func (d *DeltaDebugController) FormEnvelope() forms.Envelope {
	return forms.Envelope{Version: ddcrClassVersion, ID: d.ID}
}

func (d *DeltaDebugController) FourCC() forms.FourCC { return forms.TagDDCR }

func (d *DeltaDebugController) EncodeBody(b *store.Buffer) {
	b.WriteU64(uint64(d.TargetInput))
	b.WriteI64(d.WindowBegin)
	b.WriteI64(d.WindowLength)
	b.WriteI64(d.Granularity)
	b.WriteU64(uint64(len(d.Outcomes)))
	for _, o := range d.Outcomes {
		b.WriteI32(int32(o))
	}
}

func (d *DeltaDebugController) DecodeBody(strm *store.Stream, env forms.Envelope, r *store.Resolver) {
	d.ID = env.ID
	if env.Version != ddcrClassVersion {
		return
	}
	d.TargetInput = forms.FormID(strm.ReadU64())
	d.WindowBegin = strm.ReadI64()
	d.WindowLength = strm.ReadI64()
	d.Granularity = strm.ReadI64()
	n := strm.ReadU64()
	d.Outcomes = make([]DDOutcome, 0, n)
	for i := uint64(0); i < n; i++ {
		d.Outcomes = append(d.Outcomes, DDOutcome(strm.ReadI32()))
	}
}
