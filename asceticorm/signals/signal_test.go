package signals

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleEvent struct {
	payload int
}

func TestSignalNotifiesInAttachmentOrder(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var calls []int
	s.Attach(func(e sampleEvent) { calls = append(calls, e.payload) }, "first")
	s.Attach(func(e sampleEvent) { calls = append(calls, e.payload*10) }, "second")
	s.Notify(sampleEvent{1})
	assert.Equal(t, []int{1, 10}, calls)
}

func TestSignalAttachIsIdempotentPerID(t *testing.T) {
	tests := []struct {
		name string
		ids  []any
	}{
		{"explicit id", []any{"obs"}},
		{"function pointer", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSignal[sampleEvent]()
			count := 0
			observer := Observer[sampleEvent](func(sampleEvent) { count++ })
			s.Attach(observer, tt.ids...)
			s.Attach(observer, tt.ids...)
			s.Notify(sampleEvent{})
			assert.Equal(t, 1, count)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestSignalDuplicateIDKeepsFirstObserver(t *testing.T) {
	s := NewSignal[sampleEvent]()
	var which int
	s.Attach(func(sampleEvent) { which = 1 }, "same")
	s.Attach(func(sampleEvent) { which = 2 }, "same")
	s.Notify(sampleEvent{})
	assert.Equal(t, 1, which)
}

func TestSignalDetach(t *testing.T) {
	s := NewSignal[sampleEvent]()
	called := false
	observer := Observer[sampleEvent](func(sampleEvent) { called = true })
	s.Attach(observer, "obs")
	s.Detach(observer, "obs")
	s.Detach(observer, "missing")
	s.Notify(sampleEvent{})
	assert.False(t, called)
}

func TestSignalDetachFuncRemovesObserver(t *testing.T) {
	s := NewSignal[sampleEvent]()
	called := false
	detach := s.Attach(func(sampleEvent) { called = true })
	detach()
	s.Notify(sampleEvent{})
	assert.False(t, called)
	assert.Zero(t, s.Len())
}

func TestSignalObserverMayDetachItself(t *testing.T) {
	s := NewSignal[sampleEvent]()
	count := 0
	var detach Detach
	detach = s.Attach(func(sampleEvent) {
		count++
		detach()
	}, "once")
	s.Notify(sampleEvent{})
	s.Notify(sampleEvent{})
	assert.Equal(t, 1, count)
}

func TestMakeIDForFunction(t *testing.T) {
	observer := Observer[sampleEvent](func(sampleEvent) {})
	assert.Equal(t, reflect.ValueOf(observer).Pointer(), makeID(observer))
}
