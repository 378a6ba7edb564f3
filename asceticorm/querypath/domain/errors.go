package querypath

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSyntax      = errors.New("querypath: syntax error")
	ErrIllegalPath = errors.New("querypath: illegal path")
)

// SyntaxError locates a lexer or parser failure in the source text.
type SyntaxError struct {
	Position int
	Message  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("querypath: syntax error at position %d: %s", e.Position, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
