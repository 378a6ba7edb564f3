package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
)

func TestSearchedCase(t *testing.T) {
	f := newEmployeeFixture()
	b := NewCase().
		When(must(Lt(f.age, Literal(30))), Literal(int32(1))).
		When(must(Lt(f.age, Literal(50))), f.salary).
		Otherwise(Constant(0))

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, metamodel.TypeDecimal, c.Type())
	assert.Len(t, c.(CaseNode).Whens(), 2)
	assert.Nil(t, c.(CaseNode).Operand())

	_, err = b.When(must(IsNull(f.age)), Literal(1)).Build()
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, b.Err(), ErrFrozen)
}

func TestSimpleCase(t *testing.T) {
	f := newEmployeeFixture()
	c, err := NewSimpleCase(f.name).
		When(Literal("a"), Constant("first")).
		When(Literal("b"), Constant("second")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, metamodel.TypeString, c.Type())
	assert.Nil(t, c.(CaseNode).Otherwise())
}

func TestCaseErrors(t *testing.T) {
	f := newEmployeeFixture()
	tests := []struct {
		name    string
		builder *CaseBuilder
		want    error
	}{
		{"no branches", NewCase(), ErrIllegalState},
		{"searched condition is not a predicate", NewCase().When(f.age, Literal(1)), ErrIllegalArgument},
		{"simple value of another type", NewSimpleCase(f.name).When(Literal(1), Literal(1)), ErrIncompatibleType},
		{"nil operand", NewSimpleCase(nil), ErrIllegalArgument},
		{"nil result", NewCase().When(must(IsNull(f.age)), nil), ErrIllegalArgument},
		{"mixed result types", NewCase().When(must(IsNull(f.age)), f.name).Otherwise(f.age), ErrIncompatibleType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCoalesce(t *testing.T) {
	f := newEmployeeFixture()

	empty, err := NewCoalesce().Build()
	require.NoError(t, err)
	assert.Empty(t, empty.(CoalesceNode).Values())

	b := NewCoalesce().Value(f.age).Value(f.rating)
	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, metamodel.TypeFloat64, c.Type())

	b.Value(Literal(1))
	assert.ErrorIs(t, b.Err(), ErrFrozen)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrFrozen)
}
