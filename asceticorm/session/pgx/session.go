package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
)

// Session represents a database session over one pooled connection.
type Session struct {
	ctx  context.Context
	conn *pgxpool.Conn
}

func NewSession(ctx context.Context, conn *pgxpool.Conn) *Session {
	return &Session{
		ctx:  ctx,
		conn: conn,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbQuerier {
	return &connection{ctx: s.ctx, exec: s.conn}
}

func (s *Session) Placeholder() session.Placeholder {
	return session.Dollar
}

// TxSession runs queries inside a caller-owned transaction.
type TxSession struct {
	ctx context.Context
	tx  pgx.Tx
}

func NewTxSession(ctx context.Context, tx pgx.Tx) *TxSession {
	return &TxSession{
		ctx: ctx,
		tx:  tx,
	}
}

func (s *TxSession) Context() context.Context {
	return s.ctx
}

func (s *TxSession) Connection() session.DbQuerier {
	return &connection{ctx: s.ctx, exec: s.tx}
}

func (s *TxSession) Placeholder() session.Placeholder {
	return session.Dollar
}

// executor interface for both *pgxpool.Conn and pgx.Tx
type executor interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// connection implements session.DbQuerier
type connection struct {
	ctx  context.Context
	exec executor
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	r, err := c.exec.Query(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &rows{r}, nil
}

// rows adapts pgx.Rows, whose Close reports nothing.
type rows struct {
	pgx.Rows
}

func (r *rows) Close() error {
	r.Rows.Close()
	return r.Rows.Err()
}
