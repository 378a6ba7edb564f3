package session

import (
	"context"
)

type Rows interface {
	Close() error
	Err() error
	Next() bool
	Scan(dest ...any) error
}

type DbQuerier interface {
	Query(query string, args ...any) (Rows, error)
}

// DbSession is the read side of a persistence session. Queries run under the
// session context.
type DbSession interface {
	Context() context.Context
	Connection() DbQuerier
}

type SessionPoolCallback func(DbSession) error

type SessionPool interface {
	Session(context.Context, SessionPoolCallback) error
}

// Placeholder numbers positional parameters the way a driver expects them.
type Placeholder interface {
	Placeholder(position int) string
}

// PlaceholderProvider is implemented by sessions that know their driver's
// parameter syntax.
type PlaceholderProvider interface {
	Placeholder() Placeholder
}
