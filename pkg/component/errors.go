package component

import "errors"

// Sentinel errors for component operations.
var (
	ErrNotFound      = errors.New("component: not registered")
	ErrDuplicate     = errors.New("component: name already registered")
	ErrUnknownField  = errors.New("component: unknown field")
	ErrFieldLocked   = errors.New("component: field is locked")
	ErrFieldReadOnly = errors.New("component: field is computed")
	ErrNotSettable   = errors.New("component: does not accept updates")
	ErrNotCallable   = errors.New("component: does not accept calls")
	ErrHydration     = errors.New("component: hydration failed")
)

// IsRejectedWrite reports whether err is a schema rejection of a client write.
func IsRejectedWrite(err error) bool {
	return errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrFieldLocked) ||
		errors.Is(err, ErrFieldReadOnly)
}
