package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "github.com/krew-solutions/ascetic-orm-go/asceticorm/criteria/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/metamodel"
	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/utils/testutils"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

var hr = testutils.HRModel()

func TestInnerAndLeftJoinsMergeToInner(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee"))
	inner := must(e.Join("department"))
	left := must(e.Join("department", c.WithJoinType(c.JoinLeft)))
	require.NoError(t, q.Where(must(c.Eq(must(left.Get("name")), c.Constant("R&D")))))

	g, err := BuildJoinGraph(q)
	require.NoError(t, err)
	node := g.Node(inner)
	assert.Same(t, node, g.Node(left))
	assert.Equal(t, c.JoinInner, node.JoinType())
	assert.Equal(t, StateMerged, node.State())

	text, _, err := g.Render()
	require.NoError(t, err)
	assert.Equal(t,
		"select employee_0 from Employee employee_0 inner join employee_0.department employee_1 where employee_1.name = 'R&D'",
		text)
}

func TestRequiredModeWinsOnMerge(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee"))
	first := must(e.Join("department", c.WithJoinType(c.JoinLeft)))
	must(e.Join("department", c.WithJoinType(c.JoinLeft), c.WithJoinMode(c.RequiredToMergeExists)))

	g, err := BuildJoinGraph(q)
	require.NoError(t, err)
	node := g.Node(first)
	assert.Equal(t, c.RequiredToMergeExists, node.JoinMode())
	assert.Equal(t, c.JoinLeft, node.JoinType())
	assert.True(t, node.IsRetained())
}

func TestCreateNewJoinsAreDistinct(t *testing.T) {
	q := c.NewQuery(hr)
	d := must(q.From("Department"))
	first := must(d.Join("employees", c.WithJoinMode(c.RequiredToCreateNew)))
	second := must(d.Join("employees", c.WithJoinMode(c.RequiredToCreateNew)))

	text, _, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t,
		"select department_0 from Department department_0 "+
			"inner join department_0.employees department_1 "+
			"inner join department_0.employees department_2",
		text)

	g, err := BuildJoinGraph(q)
	require.NoError(t, err)
	assert.NotSame(t, g.Node(first), g.Node(second))
}

func TestAliasConflict(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee"))
	must(e.Join("department", c.WithAlias("d")))
	must(e.Join("department", c.WithAlias("dep")))

	_, err := BuildJoinGraph(q)
	assert.ErrorIs(t, err, c.ErrAliasConflict)
}

func TestExplicitAliasIsKept(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee", c.WithAlias("e")))
	d := must(e.Join("department", c.WithAlias("d")))
	require.NoError(t, q.Where(must(c.IsNotNull(must(d.Get("name"))))))

	text, _, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t, "select e from Employee e inner join e.department d where d.name is not null", text)
}

func TestGeneratedAliasesSkipExplicitOnes(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee", c.WithAlias("employee_1")))
	d := must(e.Join("department"))
	company := must(d.Join("company", c.WithJoinType(c.JoinLeft)))
	require.NoError(t, q.Where(must(c.Eq(must(company.Get("name")), c.Constant("Acme")))))

	text, _, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t,
		"select employee_1 from Employee employee_1 "+
			"inner join employee_1.department employee_0 "+
			"left join employee_0.company employee_2 "+
			"where employee_2.name = 'Acme'",
		text)
}

func TestDistinctJoinsCannotShareAlias(t *testing.T) {
	q := c.NewQuery(hr)
	must(q.From("Employee", c.WithAlias("x")))
	must(q.From("Company", c.WithAlias("x")))

	_, err := BuildJoinGraph(q)
	assert.ErrorIs(t, err, c.ErrAliasConflict)
}

func TestIdentifierReadElision(t *testing.T) {
	tests := []struct {
		name     string
		strict   bool
		path     func(e *c.From) *c.Path
		expected string
		elided   bool
	}{
		{
			"left join read only for its id",
			false,
			func(e *c.From) *c.Path {
				return must(must(e.Join("department", c.WithJoinType(c.JoinLeft))).Get("id"))
			},
			"select employee_0 from Employee employee_0 where employee_0.department.id = :literal_0",
			true,
		},
		{
			"inner join of a mandatory association under strict schema",
			true,
			func(e *c.From) *c.Path {
				return must(must(e.Get("badge")).Get("id"))
			},
			"select employee_0 from Employee employee_0 where employee_0.badge.id = :literal_0",
			true,
		},
		{
			"inner join without strict schema",
			false,
			func(e *c.From) *c.Path {
				return must(must(e.Get("badge")).Get("id"))
			},
			"select employee_0 from Employee employee_0 inner join employee_0.badge employee_1 where employee_1.id = :literal_0",
			false,
		},
		{
			"inner join of an optional association under strict schema",
			true,
			func(e *c.From) *c.Path {
				return must(must(e.Get("department")).Get("id"))
			},
			"select employee_0 from Employee employee_0 inner join employee_0.department employee_1 where employee_1.id = :literal_0",
			false,
		},
		{
			"left join read for another attribute",
			false,
			func(e *c.From) *c.Path {
				return must(must(e.Join("department", c.WithJoinType(c.JoinLeft))).Get("name"))
			},
			"select employee_0 from Employee employee_0 left join employee_0.department employee_1 where employee_1.name = :literal_0",
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := c.NewQuery(hr, c.WithStrictSchema(tt.strict))
			e := must(q.From("Employee"))
			path := tt.path(e)
			var value any = int64(7)
			if path.Type() == metamodel.TypeString {
				value = "R&D"
			}
			require.NoError(t, q.Where(must(c.Eq(path, c.Literal(value)))))

			g, err := BuildJoinGraph(q)
			require.NoError(t, err)
			text, params, err := g.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
			assert.Equal(t, []Parameter{{Name: "literal_0", Value: value}}, params)

			join := g.Roots()[0].Children()[0]
			assert.Equal(t, tt.elided, join.State() == StateElided)
		})
	}
}

func TestWholeEntitySelectionIsNeverElided(t *testing.T) {
	q := c.NewQuery(hr, c.WithStrictSchema(true))
	e := must(q.From("Employee"))
	require.NoError(t, q.Select(must(e.Get("badge"))))
	require.NoError(t, q.Where(must(c.Eq(must(must(e.Get("badge")).Get("id")), c.Literal(int64(1))))))

	text, _, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t,
		"select employee_1 from Employee employee_0 inner join employee_0.badge employee_1 where employee_1.id = :literal_0",
		text)
}

func TestUnusedOptionalJoinsAreRemoved(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee"))
	department := must(e.Join("department", c.WithJoinType(c.JoinLeft)))
	must(department.Join("company"))
	badge := must(e.Join("badge", c.WithJoinMode(c.RequiredToMergeExists)))

	g, err := BuildJoinGraph(q)
	require.NoError(t, err)
	assert.Equal(t, StateElided, g.Node(department).State())
	assert.Equal(t, StateRetained, g.Node(badge).State())

	text, _, err := g.Render()
	require.NoError(t, err)
	assert.Equal(t, "select employee_0 from Employee employee_0 inner join employee_0.badge employee_1", text)
}

func TestNestedIdentifierReadKeepsParentJoin(t *testing.T) {
	q := c.NewQuery(hr)
	e := must(q.From("Employee"))
	department := must(e.Join("department", c.WithJoinType(c.JoinLeft)))
	company := must(department.Join("company", c.WithJoinType(c.JoinLeft)))
	require.NoError(t, q.Where(must(c.Eq(must(company.Get("id")), c.Literal(int64(3))))))

	g, err := BuildJoinGraph(q)
	require.NoError(t, err)
	assert.Equal(t, StateElided, g.Node(company).State())
	assert.Equal(t, StateRetained, g.Node(department).State())

	text, _, err := g.Render()
	require.NoError(t, err)
	assert.Equal(t,
		"select employee_0 from Employee employee_0 left join employee_0.department employee_1 where employee_1.company.id = :literal_0",
		text)
}

func TestFetchReuse(t *testing.T) {
	tests := []struct {
		name     string
		path     querypath.QueryPath
		expected string
	}{
		{
			"all fetch adds a distinct join",
			querypath.Fetch().Get("employees", querypath.All).End(),
			"select department_0 from Department department_0 " +
				"inner join department_0.employees department_1 " +
				"left join fetch department_0.employees department_2 " +
				"where department_1.name = 'Bob'",
		},
		{
			"partial fetch reuses the join",
			querypath.Fetch().Get("employees", querypath.Partial).End(),
			"select department_0 from Department department_0 " +
				"inner join fetch department_0.employees department_1 " +
				"where department_1.name = 'Bob'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := c.NewQuery(hr)
			d := must(q.From("Department"))
			employees := must(d.Join("employees"))
			require.NoError(t, q.Where(must(c.Eq(must(employees.Get("name")), c.Constant("Bob")))))
			plan := must(querypath.NewPlanFactory(hr).Create("Department", tt.path))

			text, _, err := Render(q, WithQueryPaths(plan))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestQueryPathsMergeIntoOneQuery(t *testing.T) {
	plan := must(querypath.NewPlanFactory(hr).Create("Department",
		querypath.Fetch().Get("employees", querypath.All).Get("annualLeaves", querypath.Required).End(),
		querypath.Fetch().Get("employees", querypath.Partial).Get("annualLeaves", querypath.Optional).End(),
	))
	q := c.NewQuery(hr)
	must(q.From("Department"))

	text, params, err := Render(q, WithQueryPaths(plan))
	require.NoError(t, err)
	assert.Equal(t,
		"select department_0 from Department department_0 "+
			"inner join fetch department_0.employees department_1 "+
			"inner join fetch department_1.annualLeaves department_2",
		text)
	assert.Empty(t, params)
}

func TestQueryPathsNeedMatchingRoot(t *testing.T) {
	plan := must(querypath.NewPlanFactory(hr).CreateFromText("Department", "this.employees"))
	q := c.NewQuery(hr)
	must(q.From("Employee"))
	_, err := BuildJoinGraph(q, WithQueryPaths(plan))
	assert.ErrorIs(t, err, c.ErrIllegalArgument)
}

func TestBuildJoinGraphRejectsSubqueries(t *testing.T) {
	q := c.NewQuery(hr)
	must(q.From("Employee"))
	_, err := BuildJoinGraph(q.Subquery())
	assert.ErrorIs(t, err, c.ErrIllegalArgument)

	_, err = BuildJoinGraph(c.NewQuery(hr))
	assert.ErrorIs(t, err, c.ErrIllegalState)
}

func TestAliasPrefixOption(t *testing.T) {
	q := c.NewQuery(hr)
	must(q.From("AnnualLeave"))
	text, _, err := Render(q)
	require.NoError(t, err)
	assert.Equal(t, "select annualLeave_0 from AnnualLeave annualLeave_0", text)

	text, _, err = Render(q, WithAliasPrefix("x"))
	require.NoError(t, err)
	assert.Equal(t, "select x_0 from AnnualLeave x_0", text)
}
