// Package codecerr defines the error kinds reported by the codec packages.
//
// Callers distinguish kinds with IsFormat, IsContract and IsNoMatch rather than
// matching message text.
package codecerr

import (
	"errors"
	"fmt"
)

// Kind classifies a codec error.
type Kind uint8

const (
	// KindFormat marks malformed wire bytes or encoded strings.
	KindFormat Kind = iota + 1
	// KindContract marks a caller-supplied value violating a precondition.
	KindContract
	// KindNoMatch marks a value with no interpretation under the current rules.
	KindNoMatch
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format"
	case KindContract:
		return "contract"
	case KindNoMatch:
		return "no match"
	default:
		return "unknown"
	}
}

// Error is a classified codec error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Format returns a FormatError wrapping cause, which may be nil.
func Format(message string, cause error) error {
	return &Error{Kind: KindFormat, Message: message, Err: cause}
}

// Formatf returns a FormatError with a formatted message.
func Formatf(format string, args ...any) error {
	return &Error{Kind: KindFormat, Message: fmt.Sprintf(format, args...)}
}

// Contractf returns a ContractError with a formatted message.
func Contractf(format string, args ...any) error {
	return &Error{Kind: KindContract, Message: fmt.Sprintf(format, args...)}
}

// NoMatchf returns a NoMatchError with a formatted message.
func NoMatchf(format string, args ...any) error {
	return &Error{Kind: KindNoMatch, Message: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsFormat reports whether err is a FormatError.
func IsFormat(err error) bool { return is(err, KindFormat) }

// IsContract reports whether err is a ContractError.
func IsContract(err error) bool { return is(err, KindContract) }

// IsNoMatch reports whether err is a NoMatchError.
func IsNoMatch(err error) bool { return is(err, KindNoMatch) }

func is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
