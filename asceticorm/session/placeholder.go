package session

import (
	"strconv"
)

type dollar struct{}

func (dollar) Placeholder(position int) string {
	return "$" + strconv.Itoa(position)
}

type question struct{}

func (question) Placeholder(int) string {
	return "?"
}

var (
	// Dollar numbers parameters from $1, as PostgreSQL does.
	Dollar Placeholder = dollar{}
	// Question marks every parameter with ?, as SQLite and MySQL do.
	Question Placeholder = question{}
)

// PlaceholderOf returns the placeholder style of the session, Dollar by default.
func PlaceholderOf(s DbSession) Placeholder {
	if p, ok := s.(PlaceholderProvider); ok {
		return p.Placeholder()
	}
	return Dollar
}
