package storage

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// postgresSchema is applied on open so a fresh database works out of the box.
//
//go:embed postgres_schema.sql
var postgresSchema string

type PostgresSink struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and bootstraps the schema, failing fast if the database is unreachable.
func OpenPostgres(ctx context.Context, url string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "apply postgres schema")
	}
	return &PostgresSink{pool: pool}, nil
}

func (s *PostgresSink) Append(ctx context.Context, line []byte) error {
	key, err := keyOf(line)
	if err != nil {
		return err
	}
	receivedAt, err := time.Parse(time.RFC3339Nano, key.ReceivedAt)
	if err != nil {
		return errors.Wrap(err, "parse received_at")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO survey_record (submission_id, received_at, record)
		VALUES ($1, $2, $3)
	`, key.SubmissionID, receivedAt, string(line))
	return errors.Wrap(err, "insert survey_record")
}

// Count returns the number of stored records. Only used by tests and diagnostics.
func (s *PostgresSink) Count(ctx context.Context) (n int64, err error) {
	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM survey_record`).Scan(&n)
	return
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
