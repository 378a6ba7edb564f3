package testutils

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgPool connects to the database described by the DB_* environment
// variables and pings it.
func NewPgPool(ctx context.Context) (*pgxpool.Pool, error) {
	var dbUsername string = getEnv("DB_USERNAME", "devel")
	var dbPassword string = getEnv("DB_PASSWORD", "devel")
	var dbHost string = getEnv("DB_HOST", "localhost")
	var dbPort string = getEnv("DB_PORT", "5432")
	var dbBasename string = getEnv("DB_DATABASE", "devel_asceticorm")

	connString := "postgres://" + dbUsername + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbBasename

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
