package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error independently of the transport.
type Kind string

const (
	KindMissingField       Kind = "MISSING_FIELD"
	KindInvalidStatus      Kind = "INVALID_STATUS"
	KindInvalidInput       Kind = "INVALID_INPUT"
	KindDuplicateAccount   Kind = "DUPLICATE_ACCOUNT"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindNotFound           Kind = "NOT_FOUND"
	KindInternal           Kind = "INTERNAL"
)

// Messages shown to clients.
const (
	MsgCredentialsRequired = "All credentials are required"
	MsgDuplicateAccount    = "User exists with this email, please login"
	MsgInvalidCredentials  = "Invalid credentials, please try again"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgUnauthenticated     = "Not authenticated, please login"
	MsgTaskRequired        = "Task is required"
	MsgInvalidStatus       = "Invalid status. Allowed values are 'completed' or 'pending'."
	MsgTaskNotFound        = "Task not found"
	MsgInternal            = "Unexpected error, please try again later"
)

// Error is returned by every service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func internalError(err error) *Error {
	return WrapError(KindInternal, MsgInternal, err)
}

// KindOf reports the kind of err. Errors that did not come from this package
// are internal.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	if errors.Is(err, ErrInvalidSession) {
		return KindUnauthenticated
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind != KindInternal {
		return svcErr.Message
	}
	if errors.Is(err, ErrInvalidSession) {
		return MsgUnauthenticated
	}
	return MsgInternal
}
