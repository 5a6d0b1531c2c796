package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertStore(t *testing.T, db *DB, tenantID string, id int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO stores (tenant_id, id, code, name) VALUES (?, ?, ?, ?)`,
		tenantID, id, fmt.Sprintf("S%03d", id), "Store",
	)
	require.NoError(t, err)
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"stores",
		"weekly_periods",
		"activity_log",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Running again is a no-op.
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestWeeklyPeriodsBackstop exercises the schema constraints without the repository
func TestWeeklyPeriodsBackstop(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertStore(t, db, "tenant1", 7)

	insert := `INSERT INTO weekly_periods (
		id, tenant_id, store_id, week_number, week_start, week_end, start_year,
		revenue, units_sold, active, created_at, updated_at
	) VALUES (?, 'tenant1', ?, ?, ?, ?, ?, '100', 1, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`

	_, err := db.ExecContext(ctx, insert, "p1", 7, 2, "2025-01-06", "2025-01-12", 2025, 1)
	require.NoError(t, err)

	// Same week number and year.
	_, err = db.ExecContext(ctx, insert, "p2", 7, 2, "2025-01-06", "2025-01-12", 2025, 1)
	require.ErrorContains(t, err, duplicateWeekMessage)

	// Intersecting range under another week number.
	_, err = db.ExecContext(ctx, insert, "p3", 7, 3, "2025-01-12", "2025-01-18", 2025, 1)
	require.ErrorContains(t, err, overlapMessage)

	// Retired rows don't take part.
	_, err = db.ExecContext(ctx, insert, "p4", 7, 2, "2025-01-06", "2025-01-12", 2025, 0)
	require.NoError(t, err)

	// Unknown store.
	_, err = db.ExecContext(ctx, insert, "p5", 99, 2, "2025-01-06", "2025-01-12", 2025, 1)
	require.Error(t, err)
	require.True(t, isForeignKeyViolation(err))

	// Week number bounds.
	_, err = db.ExecContext(ctx, insert, "p6", 7, 54, "2025-03-03", "2025-03-09", 2025, 1)
	require.Error(t, err)
}
