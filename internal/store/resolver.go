package store

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Resolver implements spec §4.5's two-phase loader: while forms are
// being decoded, readers enqueue closures that wire cross-references
// by id instead of resolving them immediately (since the target form
// may not have been read yet). Once every form is registered, Resolve
// runs the early tasks, then ResolveLate runs the late tasks -- this
// breaks both ordering dependencies and reference cycles.
//
// A typical early task looks up a referenced FormID via the *Store
// argument and logs a warning (via Warnf) if the reference is
// dangling; see input.(*Input).DecodeBody for the concrete use this
// package was built for.
type Resolver struct {
	store *Store
	log   *zerolog.Logger
	early []func(*Store) error
	late  []func(*Store) error
}

func NewResolver(s *Store) *Resolver {
	return &Resolver{store: s}
}

// SetLogger attaches the logger Resolve/ResolveLate tasks reach via
// Warnf. Load calls this with whichever *zerolog.Logger it was given.
func (r *Resolver) SetLogger(log *zerolog.Logger) {
	r.log = log
}

// Warnf logs a formatted warning through the resolver's logger, if
// one was set; a no-op otherwise. Decoders use this from an enqueued
// task to report a dangling cross-reference without failing the load.
func (r *Resolver) Warnf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.Warn().Msg(fmt.Sprintf(format, args...))
}

// EnqueueEarly registers a closure to run during Resolve, once every
// form has been registered in the store.
func (r *Resolver) EnqueueEarly(f func(*Store) error) {
	r.early = append(r.early, f)
}

// EnqueueLate registers a closure to run during ResolveLate, after
// every early task has completed -- for references that themselves
// depend on an early-resolved field.
func (r *Resolver) EnqueueLate(f func(*Store) error) {
	r.late = append(r.late, f)
}

// Resolve runs every early task in enqueue order.
func (r *Resolver) Resolve() error {
	for _, f := range r.early {
		if err := f(r.store); err != nil {
			return err
		}
	}
	return nil
}

// ResolveLate runs every late task in enqueue order.
func (r *Resolver) ResolveLate() error {
	for _, f := range r.late {
		if err := f(r.store); err != nil {
			return err
		}
	}
	return nil
}
