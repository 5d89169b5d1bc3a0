package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rows abstracts pgx.Rows for testability.
type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

// DBConn is the query surface the registry mirror needs.
type DBConn interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
}

type pgxPoolLike interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PoolAdapter wraps *pgxpool.Pool to satisfy DBConn.
type PoolAdapter struct {
	pool pgxPoolLike
}

func NewPoolAdapter(pool *pgxpool.Pool) *PoolAdapter {
	return &PoolAdapter{pool: pool}
}

func (p *PoolAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
