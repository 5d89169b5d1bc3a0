package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HammerMeetNail/conversando/internal/config"
)

const postgresConnectTimeout = 10 * time.Second

// registryProbe fails until the migrations have created the mirror tables.
const registryProbe = `SELECT 1 FROM access_codes LIMIT 1`

// PostgresDB is the Postgres copy of the spreadsheet registry. The server
// only reads the two mirror tables, a few rows per request.
type PostgresDB struct {
	Pool *pgxpool.Pool
}

var (
	parsePGConfig = pgxpool.ParseConfig
	newPGPool     = pgxpool.NewWithConfig
	pingPGPool    = func(ctx context.Context, pool *pgxpool.Pool) error {
		return pool.Ping(ctx)
	}
	probePGRegistry = func(ctx context.Context, pool *pgxpool.Pool) error {
		_, err := pool.Exec(ctx, registryProbe)
		return err
	}
	closePGPool = func(pool *pgxpool.Pool) {
		pool.Close()
	}
)

// NewPostgresDB connects to the registry database. ctx bounds the initial
// connect and ping only.
func NewPostgresDB(ctx context.Context, cfg config.DatabaseConfig) (*PostgresDB, error) {
	poolConfig, err := parsePGConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing registry database config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
	defer cancel()

	pool, err := newPGPool(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating registry pool for %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	if err := pingPGPool(ctx, pool); err != nil {
		closePGPool(pool)
		return nil, fmt.Errorf("pinging registry database %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &PostgresDB{Pool: pool}, nil
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		closePGPool(db.Pool)
	}
}

// Health reports ready once the database answers and the registry tables
// are readable.
func (db *PostgresDB) Health(ctx context.Context) error {
	if err := pingPGPool(ctx, db.Pool); err != nil {
		return fmt.Errorf("pinging registry database: %w", err)
	}
	if err := probePGRegistry(ctx, db.Pool); err != nil {
		return fmt.Errorf("reading registry tables: %w", err)
	}
	return nil
}
