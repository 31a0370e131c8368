// Package fuzzerr defines the typed errors shared by the core packages.
//
// The grammar engine reports failure through validity bits rather than
// these errors. The store's save/load paths (including Stream decoding)
// and session.LoadSettings return them as ordinary Go errors, so callers
// see a consistent kind and wrapped cause rather than ad hoc
// fmt.Errorf text.
package fuzzerr

import "fmt"

// Kind classifies a core-level failure.
type Kind string

const (
	KindGrammarParse Kind = "grammar-parse"
	KindEncode       Kind = "encode"
	KindDecode       Kind = "decode"
	KindExtraction   Kind = "extraction"
	KindExtension    Kind = "extension"
	KindStore        Kind = "store"
)

// Error wraps a Cause with a Kind and, where available, a source
// position (1-based row; 0 means unknown/not applicable).
type Error struct {
	Kind  Kind
	Cause error
	Row   int
}

func (e *Error) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v: error: %v", e.Kind, e.Row, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func NewAt(kind Kind, row int, cause error) *Error {
	return &Error{Kind: kind, Cause: cause, Row: row}
}
