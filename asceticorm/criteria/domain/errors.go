package criteria

import "github.com/pkg/errors"

var (
	ErrIllegalArgument  = errors.New("criteria: illegal argument")
	ErrIncompatibleType = errors.New("criteria: incompatible type")
	ErrForeignPath      = errors.New("criteria: path belongs to another query")
	ErrIllegalState     = errors.New("criteria: illegal state")
	ErrFrozen           = errors.New("criteria: frozen")
	ErrNotFrozen        = errors.New("criteria: not frozen")
	ErrAliasConflict    = errors.New("criteria: alias conflict")
	ErrUnknownAttribute = errors.New("criteria: unknown attribute")
)
