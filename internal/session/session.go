package session

import (
	"github.com/timefuzz-go/timefuzz/internal/forms"
)

// Session is the singleton form tracking process identity across
// saves (spec §4.5's save-sequence "session runtime counter, unique
// name, save number").
type Session struct {
	RuntimeCounter uint64
	UniqueName     string
	SaveNumber     int32
}

func NewSession(uniqueName string) *Session {
	return &Session{UniqueName: uniqueName}
}

// GenerationCohort is one batch of concurrently generated/delta-debugged
// inputs (spec §3 "Generation cohort"). Concurrency across a cohort's
// members is capped via errgroup.Group.SetLimit in
// internal/session/cohort.go, grounded on the worker-pool shape of
// gitrdm-gokando/internal/parallel/pool.go.
type GenerationCohort struct {
	ID forms.FormID

	TargetSize       int64
	GeneratedCount   int64
	DeltaDebugCount  int64
	ActiveInputCount int64
	MaxSimultaneous  int
	GenerationNumber int64

	GeneratedInputs       []forms.FormID
	DeltaDebugInputs      []forms.FormID
	DeltaDebugControllers []forms.FormID
	SourceInputs          []forms.FormID

	// pinned mirrors the "flag bookkeeper that pins sources from being
	// freed while the cohort is active" (spec §3): a source input's id
	// is present here for as long as this cohort references it.
	pinned map[forms.FormID]bool
}

func NewGenerationCohort(id forms.FormID, targetSize int64, maxSimultaneous int) *GenerationCohort {
	return &GenerationCohort{
		ID:              id,
		TargetSize:      targetSize,
		MaxSimultaneous: maxSimultaneous,
		pinned:          make(map[forms.FormID]bool),
	}
}

// Pin records src as in-use by this cohort and adds it to
// SourceInputs once. The pin is only reported by IsPinned; nothing in
// this module consults it before freeing an input.
func (c *GenerationCohort) Pin(src forms.FormID) {
	if !c.pinned[src] {
		c.pinned[src] = true
		c.SourceInputs = append(c.SourceInputs, src)
	}
}

func (c *GenerationCohort) IsPinned(src forms.FormID) bool {
	return c.pinned[src]
}

// Unpin releases src once the cohort no longer needs it.
func (c *GenerationCohort) Unpin(src forms.FormID) {
	delete(c.pinned, src)
}

// DDOutcome classifies one delta-debug step's result.
type DDOutcome uint8

const (
	DDUndecided DDOutcome = iota
	DDReduced
	DDUnreduced
)

// DeltaDebugController tracks one delta-debugging run's current
// segment-removal window over a source input (supplemented from
// original_source/include/Data.h and src/Generation.cpp; named but
// undescribed by spec §4.5's 'DDCR' type tag).
type DeltaDebugController struct {
	ID forms.FormID

	TargetInput  forms.FormID
	WindowBegin  int64
	WindowLength int64
	Granularity  int64
	Outcomes     []DDOutcome
}

func NewDeltaDebugController(id forms.FormID, target forms.FormID, initialLength int64) *DeltaDebugController {
	return &DeltaDebugController{
		ID:           id,
		TargetInput:  target,
		WindowLength: initialLength,
		Granularity:  2,
	}
}

// Advance implements the classic ddmin granularity step: on Reduced,
// the window slides past the removed segment at the same granularity;
// on Unreduced, granularity doubles (coarser chunks become finer) and
// the window resets to the start, matching src/Generation.cpp's
// controller loop.
func (d *DeltaDebugController) Advance(outcome DDOutcome, totalLength int64) bool {
	d.Outcomes = append(d.Outcomes, outcome)
	switch outcome {
	case DDReduced:
		if d.WindowBegin+d.WindowLength >= totalLength {
			return false
		}
		d.WindowBegin += d.WindowLength
	case DDUnreduced:
		d.Granularity *= 2
		d.WindowBegin = 0
		d.WindowLength = totalLength / d.Granularity
		if d.WindowLength < 1 {
			return false
		}
	}
	return true
}
