// Package storage holds the append-only sinks survey records are written to.
// Every sink only ever appends; none of them exposes updates or deletes.
package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/config"
	"github.com/mbolis/survey-intake/log"
)

var ErrClosed = errors.New("sink closed")

// Sink appends encoded survey records, one JSON object per call.
type Sink interface {
	Append(ctx context.Context, line []byte) error
	Close() error
}

// Open builds the sink selected by cfg.Sink.
func Open(ctx context.Context, cfg config.Config) (Sink, error) {
	log.Infof("storage: opening %s sink", cfg.Sink)

	switch cfg.Sink {
	case config.SinkFile:
		return OpenFile(cfg.LogPath, cfg.Fsync)
	case config.SinkSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.SinkPostgres:
		return OpenPostgres(ctx, cfg.PostgresURL)
	case config.SinkMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, errors.Errorf("unknown sink %q", cfg.Sink)
}

// recordKey holds the columns SQL sinks index next to the raw line.
type recordKey struct {
	SubmissionID string `json:"submission_id"`
	ReceivedAt   string `json:"received_at"`
}

func keyOf(line []byte) (k recordKey, err error) {
	if err = json.Unmarshal(line, &k); err != nil {
		err = errors.Wrap(err, "decode record key")
		return
	}
	if k.SubmissionID == "" {
		err = errors.New("record has no submission_id")
	}
	return
}
