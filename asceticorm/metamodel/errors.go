package metamodel

import "github.com/pkg/errors"

var (
	ErrInvalidModel    = errors.New("metamodel: invalid model")
	ErrUnknownEntity   = errors.New("metamodel: unknown entity")
	ErrUnknownProperty = errors.New("metamodel: unknown property")
)
