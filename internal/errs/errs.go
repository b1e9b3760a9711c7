// Package errs classifies backend failures so the storage layer can route
// them without string matching.
package errs

import "fmt"

// Kind partitions failures by how the storage layer must react to them.
type Kind string

const (
	// Auth means no caller identity could be established.
	Auth Kind = "auth"
	// Network means the remote store was unreachable or timed out.
	Network Kind = "network"
	// Quota means the local store ran out of capacity.
	Quota Kind = "quota"
	// Conflict means a write diverged from the remote record beyond the
	// tolerance window; the remote value wins.
	Conflict Kind = "conflict"
	// Serialization means a stored payload could not be decoded.
	Serialization Kind = "serialization"
	// DoubleFailure means both backends failed for one logical operation.
	DoubleFailure Kind = "double_failure"
	// Internal is an uncategorized backend failure.
	Internal Kind = "internal"
)

// Error is a classified backend failure. Backend names which store failed
// ("remote store", "local cache") so messages stay attributable end to end.
type Error struct {
	Kind    Kind
	Backend string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	s := e.Msg
	if e.Backend != "" {
		s = e.Backend + ": " + s
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// ErrKind lets foreign error types participate in classification.
func (e *Error) ErrKind() Kind { return e.Kind }

// E builds a classified error with a fixed message.
func E(kind Kind, backend, msg string) *Error {
	return &Error{Kind: kind, Backend: backend, Msg: msg}
}

// Wrap builds a classified error around an underlying cause.
func Wrap(kind Kind, backend, msg string, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Msg: msg, Err: err}
}

// KindOf classifies any error. Errors that do not declare a kind, directly
// or through their wrap chain, classify as Internal; nil classifies as "".
func KindOf(err error) Kind {
	for err != nil {
		if k, ok := err.(interface{ ErrKind() Kind }); ok {
			return k.ErrKind()
		}
		if u, ok := err.(interface{ Unwrap() error }); ok {
			err = u.Unwrap()
			continue
		}
		return Internal
	}
	return ""
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
