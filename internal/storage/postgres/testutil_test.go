package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// journal schema. Returns a cleanup function that must be called after
// tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the journal schema. Mirrors the embedded
// migrations; inlined because the migrations package imports this one.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bid_records (
			id          BIGSERIAL PRIMARY KEY,
			listing_key TEXT   NOT NULL,
			bidder      TEXT   NOT NULL,
			paid        BIGINT NOT NULL,
			fee         BIGINT NOT NULL,
			net         BIGINT NOT NULL,
			cumulative  BIGINT NOT NULL,
			bid_time    BIGINT NOT NULL,
			created_at  BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bid_records_listing_key ON bid_records (listing_key, bid_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bid_records_bidder ON bid_records (bidder, bid_time)`,
		`CREATE TABLE IF NOT EXISTS settlements (
			receipt_id     TEXT PRIMARY KEY,
			listing_key    TEXT   NOT NULL,
			winner         TEXT   NOT NULL,
			winning_bid    BIGINT NOT NULL,
			owner_earnings BIGINT NOT NULL,
			total_fee      BIGINT NOT NULL,
			settled_at     BIGINT NOT NULL,
			created_at     BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_listing_key ON settlements (listing_key)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_winner ON settlements (winner, settled_at)`,
	}

	for _, stmt := range stmts {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err, "failed to apply schema statement")
	}
}
