package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// pgQueries implements Queries on top of a pool or a transaction.
type pgQueries struct {
	db dbtx
}

// PostgresStore is the PostgreSQL-backed Store.
type PostgresStore struct {
	*pgQueries
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgQueries: &pgQueries{db: pool}, pool: pool}
}

// Transaction runs fn inside a single database transaction.
func (s *PostgresStore) Transaction(ctx context.Context, fn func(q Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgQueries{db: tx})
	})
}

// ModuleExists reports whether the course module exists.
func (r *pgQueries) ModuleExists(ctx context.Context, moduleID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM course_modules WHERE id = $1)`, moduleID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check module: %w", err)
	}
	return exists, nil
}

// notFound translates pgx.ErrNoRows into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// splitRanks turns rank items into parallel arrays for UNNEST.
func splitRanks(items []model.RankItem) ([]int64, []int32) {
	ids := make([]int64, len(items))
	ranks := make([]int32, len(items))
	for i, it := range items {
		ids[i] = it.ID
		ranks[i] = int32(it.Rank)
	}
	return ids, ranks
}
