package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/log"
)

// FileSink appends newline-terminated records to a local file.
type FileSink struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	fsync bool
}

func OpenFile(path string, fsync bool) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &FileSink{f: f, path: path, fsync: fsync}, nil
}

// Append writes line plus a terminating newline in a single write.
// On a failed write the file is truncated back so no partial line stays behind.
func (s *FileSink) Append(ctx context.Context, line []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bytes.IndexByte(line, '\n') >= 0 {
		return errors.New("record spans more than one line")
	}

	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return ErrClosed
	}
	info, err := s.f.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", s.path)
	}

	n, err := s.f.Write(buf)
	if err != nil {
		if n > 0 {
			if terr := s.f.Truncate(info.Size()); terr != nil {
				log.Errorf("storage.file.truncate: %s: %s", s.path, terr)
			}
		}
		return errors.Wrapf(err, "append to %s", s.path)
	}
	if s.fsync {
		if err := s.f.Sync(); err != nil {
			return errors.Wrapf(err, "sync %s", s.path)
		}
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
