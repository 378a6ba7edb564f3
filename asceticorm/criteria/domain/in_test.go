package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"
)

func fakeNames(n int) []any {
	names := make([]any, n)
	for i := range names {
		names[i] = faker.Name().FirstName()
	}
	return names
}

func TestInPartitioning(t *testing.T) {
	f := newEmployeeFixture()
	tests := []struct {
		name     string
		count    int
		maxSize  int
		expected []int
	}{
		{"25 values by 10", 25, 10, []int{10, 10, 5}},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"below the bound", 7, 10, []int{7}},
		{"unbounded", 25, 0, []int{25}},
		{"negative size is unbounded", 3, -1, []int{3}},
		{"size of one", 3, 1, []int{1, 1, 1}},
		{"empty", 0, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := fakeNames(tt.count)
			in, err := InLiterals(f.name, values...)
			require.NoError(t, err)
			in.Freeze(tt.maxSize)

			partitions, err := in.Partitions()
			require.NoError(t, err)
			require.Len(t, partitions, len(tt.expected))

			var flattened []any
			for i, partition := range partitions {
				assert.Len(t, partition.Values(), tt.expected[i])
				assert.False(t, partition.NeedsExpand())
				for _, v := range partition.Values() {
					flattened = append(flattened, v.(LiteralNode).Value())
				}
			}
			if tt.count > 0 {
				assert.Equal(t, values, flattened)
			}
		})
	}
}

func TestInFreezeRules(t *testing.T) {
	f := newEmployeeFixture()

	in, err := InLiterals(f.name, faker.Lorem().Word())
	require.NoError(t, err)

	_, err = in.Partitions()
	assert.ErrorIs(t, err, ErrNotFrozen)

	require.NoError(t, in.Value(nil))
	require.NoError(t, in.Value(Literal(faker.Lorem().Word())))
	assert.Len(t, in.Elements(), 2)

	in.Freeze(1)
	assert.True(t, in.IsFrozen())
	assert.ErrorIs(t, in.Value(Literal("late")), ErrFrozen)
	assert.ErrorIs(t, in.Values(Literal("late")), ErrFrozen)

	in.Freeze(10)
	partitions, err := in.Partitions()
	require.NoError(t, err)
	assert.Len(t, partitions, 2)

	negated := in.Not().(*InPredicate)
	assert.True(t, negated.IsFrozen())
	negatedPartitions, err := negated.Partitions()
	require.NoError(t, err)
	assert.Len(t, negatedPartitions, 2)
}

func TestInNeedsExpand(t *testing.T) {
	f := newEmployeeFixture()
	in, err := In(f.age, Literal(1), Constant(2), Literal(3), f.age)
	require.NoError(t, err)
	in.Freeze(2)

	partitions, err := in.Partitions()
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	assert.False(t, partitions[0].NeedsExpand())
	assert.True(t, partitions[1].NeedsExpand())
}

func TestWhereFreezesInPredicates(t *testing.T) {
	f := newEmployeeFixture(WithMaxInPartitionSize(2))
	in, err := InLiterals(f.age, 1, 2, 3)
	require.NoError(t, err)

	require.NoError(t, f.query.Where(must(IsNull(f.name)), in))
	assert.True(t, in.IsFrozen())
	partitions, err := in.Partitions()
	require.NoError(t, err)
	assert.Len(t, partitions, 2)
}
