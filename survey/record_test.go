package survey

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/mbolis/survey-intake/model"
)

type memorySink struct {
	lines [][]byte
	err   error
}

func (s *memorySink) Append(_ context.Context, line []byte) error {
	if s.err != nil {
		return s.err
	}
	s.lines = append(s.lines, line)
	return nil
}

func fixedBuilder(sink Appender, now time.Time) *Builder {
	b := NewBuilder(sink)
	b.Now = func() time.Time { return now }
	return b
}

func adaSubmission() model.SurveySubmission {
	return model.SurveySubmission{
		Name:    "Ada",
		Email:   " Ada@Example.com ",
		Age:     30,
		Consent: true,
		Rating:  5,
	}
}

func TestHashHex(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashHex("abc"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if HashHex("ada@example.com") != HashHex("ada@example.com") {
		t.Fatal("hash must be deterministic")
	}
}

func TestNormalizeEmail(t *testing.T) {
	for _, in := range []string{" Ada@Example.com ", "ADA@EXAMPLE.COM", "\tada@example.com\n"} {
		once := NormalizeEmail(in)
		if once != "ada@example.com" {
			t.Errorf("%q: got %q", in, once)
		}
		if NormalizeEmail(once) != once {
			t.Errorf("%q: normalization is not idempotent", in)
		}
	}
}

func TestDeriveSubmissionID(t *testing.T) {
	at := time.Date(2024, 1, 2, 12, 5, 0, 0, time.UTC)

	if got, want := DeriveSubmissionID("ada@example.com", at), HashHex("ada@example.com|2024010212"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if DeriveSubmissionID("ada@example.com", at) != DeriveSubmissionID("ada@example.com", at.Add(50*time.Minute)) {
		t.Fatal("same hour must yield the same id")
	}
	if DeriveSubmissionID("ada@example.com", at) == DeriveSubmissionID("ada@example.com", at.Add(time.Hour)) {
		t.Fatal("different hours must yield different ids")
	}

	// 13:05 in UTC+1 is 12:05 UTC
	local := time.Date(2024, 1, 2, 13, 5, 0, 0, time.FixedZone("CET", 3600))
	if DeriveSubmissionID("ada@example.com", local) != DeriveSubmissionID("ada@example.com", at) {
		t.Fatal("hour stamp must be taken in UTC")
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 5, 6, 7, time.UTC)
	b := fixedBuilder(&memorySink{}, now)

	rec := b.Build(adaSubmission(), RequestMeta{UserAgent: "curl/8", RemoteAddr: "10.0.0.1:5555"})

	if rec.EmailHash != HashHex("ada@example.com") {
		t.Errorf("unexpected email hash %s", rec.EmailHash)
	}
	if rec.AgeHash != HashHex("30") {
		t.Errorf("unexpected age hash %s", rec.AgeHash)
	}
	if rec.SubmissionID != HashHex("ada@example.com|2024010212") {
		t.Errorf("unexpected submission id %s", rec.SubmissionID)
	}
	if !rec.ReceivedAt.Equal(now) || rec.ReceivedAt.Location() != time.UTC {
		t.Errorf("unexpected received_at %v", rec.ReceivedAt)
	}
	if rec.UserAgent != "curl/8" || rec.IP != "10.0.0.1" {
		t.Errorf("unexpected metadata ua=%q ip=%q", rec.UserAgent, rec.IP)
	}
	if rec.Name != "Ada" || !rec.Consent || rec.Rating != 5 {
		t.Errorf("non-PII fields not copied: %+v", rec)
	}
}

func TestBuildResolvesUserAgent(t *testing.T) {
	b := fixedBuilder(&memorySink{}, time.Now())

	sub := adaSubmission()
	sub.UserAgent = "from-body"
	if got := b.Build(sub, RequestMeta{UserAgent: "from-header"}).UserAgent; got != "from-body" {
		t.Errorf("explicit user agent must win, got %q", got)
	}
	if got := b.Build(adaSubmission(), RequestMeta{UserAgent: "from-header"}).UserAgent; got != "from-header" {
		t.Errorf("header must be the fallback, got %q", got)
	}
	if got := b.Build(adaSubmission(), RequestMeta{}).UserAgent; got != "" {
		t.Errorf("expected empty user agent, got %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		meta RequestMeta
		want string
	}{
		{RequestMeta{ForwardedFor: "203.0.113.7, 10.0.0.1", RemoteAddr: "10.0.0.1:1234"}, "203.0.113.7, 10.0.0.1"},
		{RequestMeta{RemoteAddr: "10.0.0.1:1234"}, "10.0.0.1"},
		{RequestMeta{RemoteAddr: "[::1]:1234"}, "::1"},
		{RequestMeta{RemoteAddr: "unix-socket"}, "unix-socket"},
		{RequestMeta{}, ""},
	}
	for _, tt := range tests {
		if got := tt.meta.ClientIP(); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.meta, got, tt.want)
		}
	}
}

func TestSubmitAppendsRecordWithoutPII(t *testing.T) {
	sink := &memorySink{}
	b := fixedBuilder(sink, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC))

	rec, err := b.Submit(context.Background(), adaSubmission(), RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.lines) != 1 {
		t.Fatalf("expected 1 appended line, got %d", len(sink.lines))
	}
	line := string(sink.lines[0])
	if strings.Contains(line, "\n") {
		t.Fatal("record must be a single line")
	}
	if strings.Contains(strings.ToLower(line), "ada@example.com") {
		t.Fatalf("plaintext email leaked: %s", line)
	}

	var stored map[string]any
	if err := json.Unmarshal(sink.lines[0], &stored); err != nil {
		t.Fatalf("stored line is not JSON: %v", err)
	}
	for _, k := range []string{"email", "age"} {
		if _, ok := stored[k]; ok {
			t.Errorf("stored record must not contain %q", k)
		}
	}
	for _, k := range []string{"name", "consent", "rating", "comments", "source", "email_hash", "age_hash", "submission_id", "user_agent", "received_at", "ip"} {
		if _, ok := stored[k]; !ok {
			t.Errorf("stored record is missing %q", k)
		}
	}
	if stored["submission_id"] != rec.SubmissionID {
		t.Errorf("stored id %v differs from returned id %s", stored["submission_id"], rec.SubmissionID)
	}
	if stored["received_at"] != "2024-01-02T12:00:00Z" {
		t.Errorf("unexpected received_at %v", stored["received_at"])
	}
}

func TestSubmitKeepsClientSubmissionID(t *testing.T) {
	sub := adaSubmission()
	sub.SubmissionID = "abc123"

	rec, err := fixedBuilder(&memorySink{}, time.Now()).Submit(context.Background(), sub, RequestMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.SubmissionID != "abc123" {
		t.Fatalf("expected abc123, got %s", rec.SubmissionID)
	}
}

func TestSubmitStorageFailure(t *testing.T) {
	cause := errors.New("disk full")
	_, err := fixedBuilder(&memorySink{err: cause}, time.Now()).Submit(context.Background(), adaSubmission(), RequestMeta{})

	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("storage error must wrap its cause")
	}
}
