// Package failure classifies errors coming out of the chain access layer so
// callers can decide what a user gets to see.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the classification of a failure.
type Kind string

const (
	// Configuration means a contract address is unset or zero; the feature is unavailable.
	Configuration Kind = "ConfigurationError"
	// PartialRead means one entity of a read batch could not be read.
	PartialRead Kind = "PartialReadFailure"
	// UserRejected means the signer declined. Never shown as an error.
	UserRejected Kind = "UserRejected"
	// ExecutionReverted means the node or the chain rejected the call.
	ExecutionReverted Kind = "ExecutionReverted"
	// ConfirmationTimeout means local waiting gave up; the transaction may still land.
	ConfirmationTimeout Kind = "ConfirmationTimeout"
	// Unclassified wraps anything else (transport errors, bad input).
	Unclassified Kind = "Unclassified"
)

// Error is a classified failure.
type Error struct {
	Kind   Kind
	Op     string
	Index  int
	Reason string
	TxHash string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Kind == PartialRead {
		fmt.Fprintf(&b, " at index %d", e.Index)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: UserRejected}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a classified failure.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Sentinels usable with errors.Is.
var (
	ErrConfiguration       = &Error{Kind: Configuration}
	ErrPartialRead         = &Error{Kind: PartialRead}
	ErrUserRejected        = &Error{Kind: UserRejected}
	ErrExecutionReverted   = &Error{Kind: ExecutionReverted}
	ErrConfirmationTimeout = &Error{Kind: ConfirmationTimeout}
)

// KindOf returns the kind of err, or Unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unclassified
}

// IsSilent reports whether err must not reach an error toast.
func IsSilent(err error) bool {
	return KindOf(err) == UserRejected
}

// Message renders one human-readable line for err. When the failure carries a
// transaction hash and explorer is set, a link to the transaction is appended.
func Message(err error, explorer string) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) {
		return "Something went wrong: " + err.Error()
	}

	var msg string
	switch fe.Kind {
	case Configuration:
		msg = "This feature is not available on the current deployment."
	case PartialRead:
		msg = "Some on-chain data could not be loaded."
	case UserRejected:
		msg = "Transaction cancelled."
	case ExecutionReverted:
		if fe.Reason != "" {
			msg = "Transaction reverted: " + fe.Reason
		} else {
			msg = "Transaction reverted."
		}
	case ConfirmationTimeout:
		msg = "Still waiting for confirmation. The transaction may still be confirmed later."
	default:
		msg = "Something went wrong: " + fe.Error()
	}

	if fe.TxHash != "" && explorer != "" {
		msg += " " + strings.TrimRight(explorer, "/") + "/tx/" + fe.TxHash
	}
	return msg
}
