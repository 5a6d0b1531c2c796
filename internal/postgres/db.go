// Package postgres implements the ledger repositories on PostgreSQL using
// lib/pq. Connections authenticate with a static DSN or with short-lived
// RDS IAM tokens.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	rdsauth "github.com/aws/aws-sdk-go-v2/feature/rds/auth"
	"github.com/lib/pq"
)

// DB wraps a PostgreSQL database connection
type DB struct {
	*sql.DB
}

// Config selects how to reach PostgreSQL. DSN wins when set; otherwise an
// RDS IAM token is generated for every new connection.
type Config struct {
	DSN string

	Endpoint string // e.g. ledger.abc123xyz.eu-central-1.rds.amazonaws.com
	Port     int
	User     string
	Name     string
	Region   string
	Profile  string
	SSLMode  string
}

// Open connects and pings the database.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	var db *sql.DB
	if cfg.DSN != "" {
		connector, err := pq.NewConnector(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		connector, err := newIAMConnector(ctx, cfg)
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(connector)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{db}, nil
}

// iamConnector builds a fresh auth token per connection; tokens live for 15 minutes.
type iamConnector struct {
	cfg         Config
	credentials aws.CredentialsProvider
	driver      pq.Driver
}

func newIAMConnector(ctx context.Context, cfg Config) (*iamConnector, error) {
	if cfg.Endpoint == "" || cfg.User == "" || cfg.Name == "" || cfg.Region == "" {
		return nil, fmt.Errorf("postgres iam auth needs endpoint, user, name and region")
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &iamConnector{cfg: cfg, credentials: awsCfg.Credentials}, nil
}

func (c *iamConnector) Connect(ctx context.Context) (driver.Conn, error) {
	dsn, err := c.dsn(ctx)
	if err != nil {
		return nil, err
	}
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to build postgres connector: %w", err)
	}
	return connector.Connect(ctx)
}

func (c *iamConnector) Driver() driver.Driver {
	return &c.driver
}

func (c *iamConnector) dsn(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s:%d", c.cfg.Endpoint, c.cfg.Port)
	token, err := rdsauth.BuildAuthToken(ctx, endpoint, c.cfg.Region, c.cfg.User, c.credentials)
	if err != nil {
		return "", fmt.Errorf("failed to create authentication token: %w", err)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.cfg.User, token),
		Host:     endpoint,
		Path:     "/" + c.cfg.Name,
		RawQuery: url.Values{"sslmode": []string{c.cfg.SSLMode}}.Encode(),
	}
	return u.String(), nil
}

// RunMigrations creates the schema. It is safe to run on every start.
func (db *DB) RunMigrations(ctx context.Context) error {
	migration := `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS stores (
    tenant_id TEXT NOT NULL,
    id BIGINT NOT NULL CHECK (id > 0),
    code TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (tenant_id, id),
    UNIQUE (tenant_id, code)
);

CREATE TABLE IF NOT EXISTS weekly_periods (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    store_id BIGINT NOT NULL,
    week_number INTEGER NOT NULL CHECK (week_number BETWEEN 1 AND 53),
    week_start DATE NOT NULL,
    week_end DATE NOT NULL,
    start_year INTEGER NOT NULL,
    revenue NUMERIC NOT NULL CHECK (revenue >= 0),
    units_sold BIGINT NOT NULL CHECK (units_sold >= 0),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    FOREIGN KEY (tenant_id, store_id) REFERENCES stores (tenant_id, id),
    CONSTRAINT weekly_periods_no_overlap EXCLUDE USING gist (
        tenant_id WITH =,
        store_id WITH =,
        daterange(week_start, week_end, '[]') WITH &&
    ) WHERE (active)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_active_store_week
    ON weekly_periods (tenant_id, store_id, week_number, start_year) WHERE active;
CREATE INDEX IF NOT EXISTS idx_store_periods ON weekly_periods (tenant_id, store_id, week_start);
CREATE INDEX IF NOT EXISTS idx_year_periods ON weekly_periods (tenant_id, start_year);

CREATE TABLE IF NOT EXISTS activity_log (
    id BIGSERIAL PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    store_id BIGINT,
    period_id TEXT,
    activity_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_tenant_activity ON activity_log (tenant_id, created_at DESC);

CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_used TIMESTAMPTZ,
    description TEXT
);
`

	if _, err := db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
