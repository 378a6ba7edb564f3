package sql

import (
	"context"
	"database/sql"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
)

// NewSession wraps a *sql.DB or a *sql.Tx. The placeholder style follows the
// driver behind it; SQLite and MySQL use session.Question.
func NewSession(ctx context.Context, db DbExecutor, placeholder session.Placeholder) *Session {
	return &Session{
		ctx:         ctx,
		dbExecutor:  db,
		placeholder: placeholder,
	}
}

type Session struct {
	ctx         context.Context
	dbExecutor  DbExecutor
	placeholder session.Placeholder
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbQuerier {
	return s
}

func (s *Session) Placeholder() session.Placeholder {
	return s.placeholder
}

func (s *Session) Query(query string, args ...any) (session.Rows, error) {
	rows, err := s.dbExecutor.QueryContext(s.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type DbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type SessionPool struct {
	db          *sql.DB
	placeholder session.Placeholder
}

func NewSessionPool(db *sql.DB, placeholder session.Placeholder) *SessionPool {
	return &SessionPool{db: db, placeholder: placeholder}
}

func (p *SessionPool) Session(ctx context.Context, callback session.SessionPoolCallback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(NewSession(ctx, p.db, p.placeholder))
}
