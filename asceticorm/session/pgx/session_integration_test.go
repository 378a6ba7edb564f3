package pgx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-orm-go/asceticorm/session"
	"github.com/krew-solutions/ascetic-orm-go/asceticorm/utils/testutils"
)

func TestSessionPoolIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pool, err := testutils.NewPgPool(ctx)
	if err != nil {
		t.Skipf("database is not available: %v", err)
	}
	defer pool.Close()

	var values []int64
	err = NewSessionPool(pool).Session(ctx, func(s session.DbSession) error {
		assert.Equal(t, session.Dollar, session.PlaceholderOf(s))
		rows, err := s.Connection().Query("select x from generate_series(1, $1) as x", 3)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v int64
			if err := rows.Scan(&v); err != nil {
				return err
			}
			values = append(values, v)
		}
		return rows.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, values)
}
