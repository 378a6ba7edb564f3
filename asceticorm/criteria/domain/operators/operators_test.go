package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInverse(t *testing.T) {
	pairs := [][2]Operator{
		{OperatorEq, OperatorNe},
		{OperatorLt, OperatorGte},
		{OperatorGt, OperatorLte},
		{OperatorAnd, OperatorOr},
	}
	for _, pair := range pairs {
		inverse, ok := Inverse(pair[0])
		assert.True(t, ok)
		assert.Equal(t, pair[1], inverse)

		back, ok := Inverse(inverse)
		assert.True(t, ok)
		assert.Equal(t, pair[0], back)
	}

	_, ok := Inverse(OperatorAdd)
	assert.False(t, ok)
}

func TestPriorityOrdering(t *testing.T) {
	assert.Less(t, Priority(OperatorOr), Priority(OperatorAnd))
	assert.Less(t, Priority(OperatorAnd), Priority(OperatorNot))
	assert.Less(t, Priority(OperatorNot), Priority(OperatorEq))
	assert.Less(t, Priority(OperatorEq), Priority(OperatorAdd))
	assert.Less(t, Priority(OperatorAdd), Priority(OperatorMul))
	assert.Less(t, Priority(OperatorMul), Priority(OperatorNeg))
	assert.Equal(t, PriorityHighest, Priority(Operator("unknown")))
}

func TestClassification(t *testing.T) {
	assert.True(t, IsComparison(OperatorGte))
	assert.False(t, IsComparison(OperatorAnd))
	assert.True(t, IsArithmetic(OperatorMod))
	assert.False(t, IsArithmetic(OperatorLike))
}
