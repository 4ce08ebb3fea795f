package server

import (
	"errors"
	"net/http"

	"github.com/vango-dev/patchwire/pkg/protocol"
)

// Sentinel errors for server setup and requests.
var (
	// ErrNoRegistry is returned by New when the config has no registry.
	ErrNoRegistry = errors.New("server: registry is required")

	// ErrNoRenderer is returned by New when the config has no renderer.
	ErrNoRenderer = errors.New("server: renderer is required")

	// ErrBadRequest is returned for update requests missing required fields.
	ErrBadRequest = errors.New("server: malformed request")

	// ErrScopeClosed is returned when a component is mounted into a scope
	// that has already ended.
	ErrScopeClosed = errors.New("server: scope closed")
)

// statusFor maps a wire error to the HTTP status it is sent with.
func statusFor(em *protocol.ErrorMessage) int {
	switch em.Code {
	case protocol.ErrInvalidRequest, protocol.ErrValidation:
		return http.StatusBadRequest
	case protocol.ErrInvalidSignature:
		return http.StatusForbidden
	case protocol.ErrComponentUnknown, protocol.ErrNotFound:
		return http.StatusNotFound
	case protocol.ErrFieldRejected, protocol.ErrCallFailed:
		return http.StatusUnprocessableEntity
	case protocol.ErrRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
