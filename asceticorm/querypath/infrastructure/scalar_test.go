package querypath

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	querypath "github.com/krew-solutions/ascetic-orm-go/asceticorm/querypath/domain"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
	sqlsession "github.com/krew-solutions/ascetic-orm-go/asceticorm/session/sql"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/utils/testutils"
)

var hr = testutils.HRModel()

func newPlan(t *testing.T, entity, text string) *querypath.Plan {
	t.Helper()
	plan, err := querypath.NewPlanFactory(hr).CreateFromText(entity, text)
	require.NoError(t, err)
	return plan
}

func TestScalarRequests(t *testing.T) {
	plan := newPlan(t, "Department", "this.description; this.image; this.employees.resume")
	reqs := ScalarRequests(plan)
	require.Len(t, reqs, 2)

	assert.Equal(t, "departments", reqs[0].Table)
	assert.Equal(t, "id", reqs[0].IDColumn)
	assert.Equal(t, []string{"description", "image"}, reqs[0].Columns)
	assert.True(t, reqs[0].Node.IsRoot())

	assert.Equal(t, "Employee", reqs[1].Entity.Name())
	assert.Equal(t, "employees", reqs[1].Table)
	assert.Equal(t, []string{"resume"}, reqs[1].Columns)
}

func TestScalarRequestsWithoutLazyScalars(t *testing.T) {
	assert.Empty(t, ScalarRequests(newPlan(t, "Department", "this.employees")))
}

func TestScalarRequestSQL(t *testing.T) {
	req := ScalarRequests(newPlan(t, "Department", "this.description; this.image"))[0]
	ids := []any{int64(1), int64(2), int64(3)}
	tests := []struct {
		name        string
		placeholder session.Placeholder
		expected    string
	}{
		{"dollar", session.Dollar, "select id, description, image from departments where id in ($1, $2, $3)"},
		{"question", session.Question, "select id, description, image from departments where id in (?, ?, ?)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := req.SQL(ids, tt.placeholder)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
			assert.Equal(t, ids, args)
		})
	}
}

func TestScalarRequestSQLWithoutIdentifiers(t *testing.T) {
	req := ScalarRequests(newPlan(t, "Department", "this.description"))[0]
	_, _, err := req.SQL(nil, session.Dollar)
	assert.ErrorIs(t, err, ErrNoIdentifiers)

	_, err = req.Statements([]any{}, session.Dollar, 2)
	assert.ErrorIs(t, err, ErrNoIdentifiers)
}

func TestScalarRequestStatements(t *testing.T) {
	req := ScalarRequests(newPlan(t, "Department", "this.description"))[0]
	ids := []any{int64(1), int64(2), int64(3), int64(4), int64(5)}

	statements, err := req.Statements(ids, session.Dollar, 2)
	require.NoError(t, err)
	assert.Equal(t, []Statement{
		{"select id, description from departments where id in ($1, $2)", []any{int64(1), int64(2)}},
		{"select id, description from departments where id in ($1, $2)", []any{int64(3), int64(4)}},
		{"select id, description from departments where id in ($1)", []any{int64(5)}},
	}, statements)

	statements, err = req.Statements(ids, session.Question, 0)
	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Equal(t, "select id, description from departments where id in (?, ?, ?, ?, ?)", statements[0].Text)
}

func TestLoadScalars(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`create table departments (id integer primary key, name text, description text, image blob)`)
	require.NoError(t, err)
	_, err = db.Exec(`insert into departments (id, name, description, image) values
		(1, 'R&D', 'Research', x'cafe'),
		(2, 'Sales', null, null),
		(3, 'Legal', 'Contracts', null)`)
	require.NoError(t, err)

	req := ScalarRequests(newPlan(t, "Department", "this.description; this.image"))[0]
	s := sqlsession.NewSession(context.Background(), db, session.Question)

	result, err := LoadScalars(s, req, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, map[any]map[string]any{
		int64(1): {"description": "Research", "image": []byte{0xca, 0xfe}},
		int64(2): {"description": nil, "image": nil},
	}, result)

	result, err = LoadScalars(s, req, nil)
	require.NoError(t, err)
	assert.Empty(t, result)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	result, err = LoadScalars(s, req, []any{int64(1), int64(2), int64(3)},
		WithMaxPartitionSize(2), WithLogger(logger))
	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, "Contracts", result[int64(3)]["description"])
	assert.Contains(t, logs.String(), "statements=2")
}

func TestLoadScalarsQueryError(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	req := ScalarRequests(newPlan(t, "Department", "this.description"))[0]
	s := sqlsession.NewSession(context.Background(), db, session.Question)
	_, err = LoadScalars(s, req, []any{int64(1)})
	assert.ErrorContains(t, err, "load scalars of Department")
}
