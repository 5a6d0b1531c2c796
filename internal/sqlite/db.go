package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: pragmas are per connection and ":memory:" is per connection too.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It is safe to run on every start.
func (db *DB) RunMigrations() error {
	migration := `
-- Stores; ids are chosen by the chain, unique per tenant
CREATE TABLE IF NOT EXISTS stores (
    tenant_id TEXT NOT NULL,
    id INTEGER NOT NULL CHECK(id > 0),
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (tenant_id, id),
    UNIQUE (tenant_id, code)
);

-- Weekly periods; dates are stored as YYYY-MM-DD text
CREATE TABLE IF NOT EXISTS weekly_periods (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    store_id INTEGER NOT NULL,
    week_number INTEGER NOT NULL CHECK(week_number BETWEEN 1 AND 53),
    week_start TEXT NOT NULL,
    week_end TEXT NOT NULL,
    start_year INTEGER NOT NULL,
    revenue TEXT NOT NULL,
    units_sold INTEGER NOT NULL CHECK(units_sold >= 0),
    active INTEGER NOT NULL DEFAULT 1 CHECK(active IN (0, 1)),
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    FOREIGN KEY (tenant_id, store_id) REFERENCES stores(tenant_id, id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_active_store_week
    ON weekly_periods(tenant_id, store_id, week_number, start_year) WHERE active = 1;
CREATE INDEX IF NOT EXISTS idx_store_periods ON weekly_periods(tenant_id, store_id, week_start);
CREATE INDEX IF NOT EXISTS idx_year_periods ON weekly_periods(tenant_id, start_year);

-- Uniqueness and overlap backstops for active periods
CREATE TRIGGER IF NOT EXISTS weekly_periods_bi BEFORE INSERT ON weekly_periods
WHEN NEW.active = 1
BEGIN
    SELECT RAISE(ABORT, 'duplicate week') WHERE EXISTS (
        SELECT 1 FROM weekly_periods p
        WHERE p.tenant_id = NEW.tenant_id AND p.store_id = NEW.store_id AND p.active = 1
          AND p.week_number = NEW.week_number AND p.start_year = NEW.start_year
    );
    SELECT RAISE(ABORT, 'period overlap') WHERE EXISTS (
        SELECT 1 FROM weekly_periods p
        WHERE p.tenant_id = NEW.tenant_id AND p.store_id = NEW.store_id AND p.active = 1
          AND p.week_start <= NEW.week_end AND NEW.week_start <= p.week_end
    );
END;

CREATE TRIGGER IF NOT EXISTS weekly_periods_bu BEFORE UPDATE ON weekly_periods
WHEN NEW.active = 1
BEGIN
    SELECT RAISE(ABORT, 'duplicate week') WHERE EXISTS (
        SELECT 1 FROM weekly_periods p
        WHERE p.tenant_id = NEW.tenant_id AND p.store_id = NEW.store_id AND p.active = 1
          AND p.id <> NEW.id
          AND p.week_number = NEW.week_number AND p.start_year = NEW.start_year
    );
    SELECT RAISE(ABORT, 'period overlap') WHERE EXISTS (
        SELECT 1 FROM weekly_periods p
        WHERE p.tenant_id = NEW.tenant_id AND p.store_id = NEW.store_id AND p.active = 1
          AND p.id <> NEW.id
          AND p.week_start <= NEW.week_end AND NEW.week_start <= p.week_end
    );
END;

-- Activity log
CREATE TABLE IF NOT EXISTS activity_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id TEXT NOT NULL,
    store_id INTEGER,
    period_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tenant_activity ON activity_log(tenant_id);
CREATE INDEX IF NOT EXISTS idx_store_activity ON activity_log(store_id);
CREATE INDEX IF NOT EXISTS idx_period_activity ON activity_log(period_id);
CREATE INDEX IF NOT EXISTS idx_created_at ON activity_log(created_at);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_tenant_keys ON api_keys(tenant_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
