package association

import "github.com/pkg/errors"

var (
	ErrUnsupportedOperation = errors.New("association: unsupported operation")
	ErrTypeMismatch         = errors.New("association: type mismatch")
	ErrNotLoaded            = errors.New("association: not loaded")
	ErrUnknownObject        = errors.New("association: unknown object")
	ErrIndexOutOfRange      = errors.New("association: index out of range")
)
