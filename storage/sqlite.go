package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/database"
)

type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Append(ctx context.Context, line []byte) error {
	key, err := keyOf(line)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_record (submission_id, received_at, record)
		VALUES (?, ?, ?)`,
		key.SubmissionID,
		key.ReceivedAt,
		string(line),
	)
	return errors.Wrap(err, "insert survey_record")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
