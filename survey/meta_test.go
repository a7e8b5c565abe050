package survey

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMetaFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/survey", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0")
	r.Header.Set("X-Forwarded-For", "198.51.100.4")

	meta := MetaFromRequest(r)
	if meta.UserAgent != "Mozilla/5.0" || meta.ForwardedFor != "198.51.100.4" || meta.RemoteAddr != r.RemoteAddr {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if meta.ClientIP() != "198.51.100.4" {
		t.Fatalf("forwarded address must win, got %q", meta.ClientIP())
	}
}
