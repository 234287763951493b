// Package errs defines the error taxonomy shared across AetherDB's storage
// engine. Errors are tagged with a Kind so callers can use errors.Is against
// the sentinel values below, while the wrapped cause (if any) is preserved
// for %w-based unwrapping.
package errs

import "fmt"

// Kind identifies the category of a storage-engine error.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	// KindInvalidDimension marks a dimension out of range or mismatched at upsert.
	KindInvalidDimension
	// KindInvalidIndexType marks an unparsable index-kind configuration value.
	KindInvalidIndexType
	// KindInvalidDistanceType marks an unparsable distance configuration value.
	KindInvalidDistanceType
	// KindNotFound marks a missing collection or document.
	KindNotFound
	// KindWalWrite marks an I/O or codec failure writing the write-ahead log.
	KindWalWrite
	// KindInvalidMagic marks an SST footer whose magic number doesn't match.
	KindInvalidMagic
	// KindDeserialize marks an SST index/data decoding failure.
	KindDeserialize
	// KindInvalidPath marks a database directory that's missing, not a
	// directory, or already locked by another process.
	KindInvalidPath
	// KindPoison marks a lock observed in a poisoned (recovered-from-panic) state.
	KindPoison
	// KindInternal marks a dispatcher-channel-closed or other invariant violation.
	KindInternal
	// KindBackPressure marks a collection refusing writes because its frozen
	// memtable list has reached the configured watermark.
	KindBackPressure
	// KindNotImplemented marks a MemTable capability a variant doesn't provide yet.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindInvalidDimension:
		return "invalid dimension"
	case KindInvalidIndexType:
		return "invalid index type"
	case KindInvalidDistanceType:
		return "invalid distance type"
	case KindNotFound:
		return "not found"
	case KindWalWrite:
		return "wal write error"
	case KindInvalidMagic:
		return "invalid magic"
	case KindDeserialize:
		return "deserialize error"
	case KindInvalidPath:
		return "invalid path"
	case KindPoison:
		return "poison error"
	case KindInternal:
		return "internal error"
	case KindBackPressure:
		return "back pressure"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "unknown error"
	}
}

// Error is a Kind-tagged error with an optional message and wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.ErrNotFound) style checks: two *Error values
// match when their Kind matches, regardless of message/cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error of the given kind with a message, no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of the given kind wrapping cause, with an optional message.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel values for errors.Is comparisons against a bare Kind.
var (
	ErrInvalidDimension    = &Error{Kind: KindInvalidDimension}
	ErrInvalidIndexType    = &Error{Kind: KindInvalidIndexType}
	ErrInvalidDistanceType = &Error{Kind: KindInvalidDistanceType}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrWalWrite            = &Error{Kind: KindWalWrite}
	ErrInvalidMagic        = &Error{Kind: KindInvalidMagic}
	ErrDeserialize         = &Error{Kind: KindDeserialize}
	ErrInvalidPath         = &Error{Kind: KindInvalidPath}
	ErrPoison              = &Error{Kind: KindPoison}
	ErrInternal            = &Error{Kind: KindInternal}
	ErrBackPressure        = &Error{Kind: KindBackPressure}
	ErrNotImplemented      = &Error{Kind: KindNotImplemented}
)
