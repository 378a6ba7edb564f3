package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/utils/testutils"
)

func TestFromAndJoins(t *testing.T) {
	q := NewQuery(testutils.HRModel())

	_, err := q.From("Nobody")
	assert.ErrorIs(t, err, metamodel.ErrUnknownEntity)

	d, err := q.From("Department", WithAlias("d"))
	require.NoError(t, err)
	assert.Equal(t, "d", d.Alias())
	assert.Nil(t, d.Parent())

	e, err := d.Join("employees", WithJoinType(JoinLeft), WithJoinMode(RequiredToCreateNew))
	require.NoError(t, err)
	assert.Equal(t, JoinLeft, e.JoinType())
	assert.Equal(t, RequiredToCreateNew, e.JoinMode())
	assert.Equal(t, "Employee", e.Entity().Name())
	assert.Same(t, d, e.Parent())
	assert.Equal(t, []*From{e}, d.Joins())
	assert.Equal(t, "Department.employees", e.String())

	_, err = d.Join("name")
	assert.ErrorIs(t, err, ErrIllegalArgument)
	_, err = d.Join("nothing")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	_, err = e.Fetch("annualLeaves")
	assert.ErrorIs(t, err, ErrIllegalArgument, "fetch below a plain join")

	fetched, err := d.Fetch("employees", WithPartialFetch())
	require.NoError(t, err)
	assert.True(t, fetched.IsFetch())
	assert.True(t, fetched.IsPartial())
	_, err = fetched.Fetch("annualLeaves")
	require.NoError(t, err)
}

func TestPathNavigation(t *testing.T) {
	q := NewQuery(testutils.HRModel())
	e := must(q.From("Employee"))

	name, err := e.Get("name")
	require.NoError(t, err)
	assert.Equal(t, metamodel.TypeString, name.Type())
	assert.Equal(t, "Employee.name", name.String())

	companyName, err := must(must(e.Get("department")).Get("company")).Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Employee.department.company.name", companyName.String())
	assert.Len(t, companyName.Steps(), 3)

	_, err = name.Get("length")
	assert.ErrorIs(t, err, ErrIllegalArgument)
	_, err = e.Get("annualLeaves")
	assert.ErrorIs(t, err, ErrIllegalArgument)
	_, err = e.Get("nothing")
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	assert.Equal(t, metamodel.TypeEntity, e.Path().Type())
	assert.Nil(t, e.Path().Last())
	assert.True(t, Equal(must(e.Get("name")), name))
}

func TestForeignPaths(t *testing.T) {
	model := testutils.HRModel()
	q := NewQuery(model)
	e := must(q.From("Employee"))
	other := NewQuery(model)
	o := must(other.From("Employee"))

	err := q.Where(must(Eq(must(o.Get("name")), Literal("x"))))
	assert.ErrorIs(t, err, ErrForeignPath)
	assert.ErrorIs(t, q.Select(must(o.Get("name"))), ErrForeignPath)
	assert.ErrorIs(t, q.OrderBy(Asc(must(o.Get("name")))), ErrForeignPath)
	assert.ErrorIs(t, q.Select(nil), ErrIllegalArgument)

	t.Run("correlated subquery sees the outer query", func(t *testing.T) {
		sub := q.Subquery()
		s := must(sub.From("Employee"))
		require.NoError(t, sub.Where(must(Eq(must(s.Get("supervisor")), e.Path()))))
		require.NoError(t, q.Where(must(Exists(sub))))
	})
	t.Run("outer query does not see subquery paths", func(t *testing.T) {
		sub := q.Subquery()
		s := must(sub.From("Badge"))
		assert.ErrorIs(t, q.Select(must(s.Get("code"))), ErrForeignPath)
	})
	t.Run("subquery of another query", func(t *testing.T) {
		sub := other.Subquery()
		must(sub.From("Badge"))
		assert.ErrorIs(t, q.Where(must(Exists(sub))), ErrForeignPath)
	})
}

func TestQueryClauses(t *testing.T) {
	f := newEmployeeFixture()
	q := f.query

	require.NoError(t, q.Select(f.name, must(Count(f.age))))
	q.Distinct()
	require.NoError(t, q.GroupBy(f.name))
	require.NoError(t, q.Having(nil, must(Gt(must(Count(f.age)), Literal(1)))))
	require.NoError(t, q.OrderBy(Desc(f.name), Asc(f.age)))
	require.NoError(t, q.Where())

	assert.Len(t, q.Selection(), 2)
	assert.True(t, q.IsDistinct())
	assert.Len(t, q.GroupList(), 1)
	assert.NotNil(t, q.GroupRestriction())
	assert.Nil(t, q.Restriction())
	require.Len(t, q.Orders(), 2)
	assert.True(t, q.Orders()[0].IsDesc())
	assert.False(t, q.Orders()[1].IsDesc())
}

func TestSubqueryType(t *testing.T) {
	f := newEmployeeFixture()
	sub := f.query.Subquery()
	b := must(sub.From("Badge"))
	assert.Equal(t, metamodel.TypeEntity, sub.Type())
	require.NoError(t, sub.Select(must(b.Get("code"))))
	assert.Equal(t, metamodel.TypeString, sub.Type())

	all, err := All(sub)
	require.NoError(t, err)
	assert.Equal(t, metamodel.TypeString, all.Type())
	_, err = Any(f.query)
	assert.ErrorIs(t, err, ErrIllegalArgument)
}
