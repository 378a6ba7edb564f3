package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type plainSession struct{}

func (plainSession) Context() context.Context { return context.Background() }
func (plainSession) Connection() DbQuerier    { return nil }

type questionSession struct {
	plainSession
}

func (questionSession) Placeholder() Placeholder { return Question }

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", Dollar.Placeholder(1))
	assert.Equal(t, "$12", Dollar.Placeholder(12))
	assert.Equal(t, "?", Question.Placeholder(3))
}

func TestPlaceholderOf(t *testing.T) {
	assert.Equal(t, Dollar, PlaceholderOf(plainSession{}))
	assert.Equal(t, Question, PlaceholderOf(questionSession{}))
}
