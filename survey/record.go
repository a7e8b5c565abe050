package survey

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/model"
)

// hourStampLayout is YYYYMMDDHH.
const hourStampLayout = "2006010215"

// Appender is the storage side of the builder: it persists one encoded record.
type Appender interface {
	Append(ctx context.Context, line []byte) error
}

type Builder struct {
	Sink Appender
	Now  func() time.Time
}

func NewBuilder(sink Appender) *Builder {
	return &Builder{Sink: sink, Now: time.Now}
}

func HashHex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DeriveSubmissionID hashes the normalized email with the UTC hour of now.
// Repeat submissions from one address within the same hour share an id.
func DeriveSubmissionID(normalizedEmail string, now time.Time) string {
	return HashHex(normalizedEmail + "|" + now.UTC().Format(hourStampLayout))
}

// Build turns a validated submission into the record to store. Raw email and age are dropped.
func (b *Builder) Build(sub model.SurveySubmission, meta RequestMeta) model.StoredSurveyRecord {
	now := b.Now().UTC()
	email := NormalizeEmail(sub.Email)

	id := sub.SubmissionID
	if id == "" {
		id = DeriveSubmissionID(email, now)
	}

	ua := sub.UserAgent
	if ua == "" {
		ua = meta.UserAgent
	}

	return model.StoredSurveyRecord{
		Name:         sub.Name,
		Consent:      sub.Consent,
		Rating:       sub.Rating,
		Comments:     sub.Comments,
		Source:       sub.Source,
		EmailHash:    HashHex(email),
		AgeHash:      HashHex(strconv.Itoa(sub.Age)),
		SubmissionID: id,
		UserAgent:    ua,
		ReceivedAt:   now,
		IP:           meta.ClientIP(),
	}
}

// Submit builds the record, encodes it and appends it to the sink.
func (b *Builder) Submit(ctx context.Context, sub model.SurveySubmission, meta RequestMeta) (model.StoredSurveyRecord, error) {
	rec := b.Build(sub, meta)

	line, err := json.Marshal(rec)
	if err != nil {
		return rec, errors.Wrap(err, "encode record")
	}
	if err := b.Sink.Append(ctx, line); err != nil {
		return rec, &StorageError{Err: err}
	}
	return rec, nil
}
