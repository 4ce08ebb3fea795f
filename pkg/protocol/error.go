package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for encoding and decoding.
var (
	ErrInvalidPatch     = errors.New("protocol: invalid patch")
	ErrInvalidNode      = errors.New("protocol: invalid node")
	ErrInvalidEnvelope  = errors.New("protocol: invalid envelope")
	ErrMaxDepthExceeded = errors.New("protocol: maximum nesting depth exceeded")
	ErrTooManyPatches   = errors.New("protocol: too many patches")
	ErrPathTooLong      = errors.New("protocol: path too long")
)

// ErrorCode identifies the type of error sent over the channel.
type ErrorCode uint16

const (
	ErrUnknown          ErrorCode = 0x0000 // Unknown error
	ErrInvalidRequest   ErrorCode = 0x0001 // Malformed request body
	ErrInvalidSignature ErrorCode = 0x0002 // State signature did not verify
	ErrComponentUnknown ErrorCode = 0x0003 // No component registered under that name
	ErrFieldRejected    ErrorCode = 0x0004 // Update targets a locked, computed or hidden field
	ErrCallFailed       ErrorCode = 0x0005 // Component method returned an error
	ErrRateLimited      ErrorCode = 0x0006 // Too many requests
	ErrServerError      ErrorCode = 0x0100 // Internal server error
	ErrNotFound         ErrorCode = 0x0102 // Resource not found
	ErrValidation       ErrorCode = 0x0103 // Validation failed
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrInvalidRequest:
		return "InvalidRequest"
	case ErrInvalidSignature:
		return "InvalidSignature"
	case ErrComponentUnknown:
		return "ComponentUnknown"
	case ErrFieldRejected:
		return "FieldRejected"
	case ErrCallFailed:
		return "CallFailed"
	case ErrRateLimited:
		return "RateLimited"
	case ErrServerError:
		return "ServerError"
	case ErrNotFound:
		return "NotFound"
	case ErrValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

// ErrorMessage is sent when a request is rejected.
type ErrorMessage struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal,omitempty"` // If true, the channel should be closed
}

// NewError creates a new non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
	}
}

// NewFatalError creates a new fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{
		Code:    code,
		Message: message,
		Fatal:   true,
	}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return fmt.Sprintf("fatal: %s: %s", em.Code, em.Message)
	}
	return em.Code.String() + ": " + em.Message
}

// IsFatal returns true if this error should close the channel.
func (em *ErrorMessage) IsFatal() bool {
	return em.Fatal
}
