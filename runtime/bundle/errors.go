package bundle

import (
	"errors"
	"fmt"
)

// Kind classifies why a bundle operation failed, per the error kinds a
// conforming extractor must distinguish: an executable that is simply not
// a bundle is not the same failure as one whose trailer is corrupt.
type Kind int

const (
	// KindNotABundle means the footer signature is absent or does not
	// match. This is informational, not an error condition for a caller
	// that is merely probing whether an executable is a bundle.
	KindNotABundle Kind = iota
	// KindCorruption means the bundle trailer, header, or a file entry is
	// structurally invalid.
	KindCorruption
	// KindVersionMismatch means the header's major/minor version is not
	// the one this reader understands, or the header's embedded file count
	// cannot be read or is not positive.
	KindVersionMismatch
	// KindIOError means a platform filesystem or mapping operation failed.
	KindIOError
	// KindCommitFailure means the rename in Phase C failed without a racing
	// peer winning either: it hit a non-retriable error, or it exhausted
	// its retry budget.
	KindCommitFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotABundle:
		return "not a bundle"
	case KindCorruption:
		return "corruption"
	case KindVersionMismatch:
		return "version mismatch"
	case KindIOError:
		return "io error"
	case KindCommitFailure:
		return "commit failure"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every fallible operation in this
// package. It carries a Kind so callers can branch with errors.Is against
// the Err* sentinels below without string-matching messages.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("runtime/bundle: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("runtime/bundle: %s", e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is one of the Err* Kind sentinels for the
// same Kind as e, so callers can write errors.Is(err, bundle.ErrCorruption).
func (e *Error) Is(target error) bool {
	var sentinel *Error
	if errors.As(target, &sentinel) && sentinel.Err == nil {
		return e.Kind == sentinel.Kind
	}
	return false
}

// Sentinel errors for use with errors.Is. Each carries only a Kind; newErr
// builds an error of a given Kind with a message and underlying cause,
// which errors.Is matches against the sentinel of the same Kind.
var (
	ErrNotABundle      = &Error{Kind: KindNotABundle}
	ErrCorruption      = &Error{Kind: KindCorruption}
	ErrVersionMismatch = &Error{Kind: KindVersionMismatch}
	ErrIOError         = &Error{Kind: KindIOError}
	ErrCommitFailure   = &Error{Kind: KindCommitFailure}
)

func newErr(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func newErrf(kind Kind, cause error, format string, args ...interface{}) error {
	return newErr(kind, fmt.Sprintf(format, args...), cause)
}
