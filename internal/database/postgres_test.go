package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HammerMeetNail/conversando/internal/config"
)

func stubPostgres(t *testing.T) {
	t.Helper()
	origParse := parsePGConfig
	origNew := newPGPool
	origPing := pingPGPool
	origProbe := probePGRegistry
	origClose := closePGPool
	t.Cleanup(func() {
		parsePGConfig = origParse
		newPGPool = origNew
		pingPGPool = origPing
		probePGRegistry = origProbe
		closePGPool = origClose
	})
	closePGPool = func(pool *pgxpool.Pool) {}
}

func TestNewPostgresDB_Errors(t *testing.T) {
	parseErr := errors.New("bad dsn")
	newErr := errors.New("new pool error")
	pingErr := errors.New("ping failed")

	tests := []struct {
		name    string
		parse   error
		newPool error
		ping    error
		want    error
		context string
	}{
		{"parse", parseErr, nil, nil, parseErr, "parsing registry database config"},
		{"new pool", nil, newErr, nil, newErr, "creating registry pool for db:5432"},
		{"ping", nil, nil, pingErr, pingErr, "pinging registry database db:5432"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPostgres(t)
			parsePGConfig = func(dsn string) (*pgxpool.Config, error) {
				if tt.parse != nil {
					return nil, tt.parse
				}
				return &pgxpool.Config{}, nil
			}
			newPGPool = func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
				if tt.newPool != nil {
					return nil, tt.newPool
				}
				return &pgxpool.Pool{}, nil
			}
			closed := false
			closePGPool = func(pool *pgxpool.Pool) { closed = true }
			pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return tt.ping }

			_, err := NewPostgresDB(context.Background(), config.DatabaseConfig{Host: "db", Port: 5432})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected error wrapping %v, got %v", tt.want, err)
			}
			if !strings.Contains(err.Error(), tt.context) {
				t.Fatalf("expected %q in error, got %q", tt.context, err.Error())
			}
			if tt.ping != nil && !closed {
				t.Fatal("expected pool to be closed after failed ping")
			}
		})
	}
}

func TestNewPostgresDB_UsesDSNAndSmallPool(t *testing.T) {
	stubPostgres(t)

	var gotDSN string
	poolCfg := &pgxpool.Config{}
	parsePGConfig = func(dsn string) (*pgxpool.Config, error) {
		gotDSN = dsn
		return poolCfg, nil
	}
	pool := &pgxpool.Pool{}
	newPGPool = func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
		return pool, nil
	}
	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return nil }

	db, err := NewPostgresDB(context.Background(), config.DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "conversando", SSLMode: "disable",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.Pool != pool {
		t.Fatal("expected returned pool to match stubbed pool")
	}
	if gotDSN != "postgres://u:p@db:5432/conversando?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", gotDSN)
	}
	if poolCfg.MaxConns != 5 || poolCfg.MinConns != 1 {
		t.Fatalf("unexpected pool bounds: max=%d min=%d", poolCfg.MaxConns, poolCfg.MinConns)
	}
	if poolCfg.MaxConnIdleTime != 10*time.Minute {
		t.Fatalf("expected MaxConnIdleTime 10m, got %v", poolCfg.MaxConnIdleTime)
	}
}

func TestPostgresDB_HealthAndClose(t *testing.T) {
	stubPostgres(t)

	pingErr := errors.New("down")
	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return pingErr }
	called := false
	closePGPool = func(pool *pgxpool.Pool) { called = true }

	db := &PostgresDB{Pool: &pgxpool.Pool{}}
	if err := db.Health(context.Background()); !errors.Is(err, pingErr) {
		t.Fatalf("expected health error, got %v", err)
	}
	db.Close()
	if !called {
		t.Fatal("expected closePGPool to be called")
	}
}

func TestPostgresDB_HealthRequiresRegistryTables(t *testing.T) {
	stubPostgres(t)

	pingPGPool = func(ctx context.Context, pool *pgxpool.Pool) error { return nil }
	missing := errors.New(`relation "access_codes" does not exist`)
	probePGRegistry = func(ctx context.Context, pool *pgxpool.Pool) error { return missing }

	db := &PostgresDB{Pool: &pgxpool.Pool{}}
	err := db.Health(context.Background())
	if !errors.Is(err, missing) || !strings.Contains(err.Error(), "reading registry tables") {
		t.Fatalf("expected registry probe error, got %v", err)
	}

	probePGRegistry = func(ctx context.Context, pool *pgxpool.Pool) error { return nil }
	if err := db.Health(context.Background()); err != nil {
		t.Fatalf("unexpected health error: %v", err)
	}
}
