package chat

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an orchestrator error for the transport layer.
type ErrorKind int

const (
	// KindValidation rejects a request before any side effect.
	KindValidation ErrorKind = iota + 1
	// KindQuotaExceeded rejects an unpaid user over the free ceiling.
	KindQuotaExceeded
	// KindPersistence means the store failed; the request is aborted.
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindPersistence:
		return "persistence"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// PlanUpdateErrorType tags quota rejections so clients can show the
// upgrade prompt.
const PlanUpdateErrorType = "plan_update_message"

// User-facing messages.
const (
	msgEmptyMessage  = "Message cannot be empty"
	msgMissingUser   = "User identity is required"
	msgChatNotFound  = "Chat not found"
	msgQuotaExceeded = "You have already generated your free %d recipes. Please upgrade your plan"
	msgPersistence   = "Could not save the conversation, please try again"
)

// Error is returned by Orchestrator.Send for every request that does not
// produce a reply.
type Error struct {
	Kind ErrorKind
	Msg  string // safe to show to the caller
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("chat: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("chat: %s: %s: %v", e.Kind, e.Msg, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError reports whether err is (or wraps) a *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Msg: msgPersistence, Err: err}
}
