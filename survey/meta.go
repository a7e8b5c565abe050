package survey

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta carries the parts of the HTTP request that end up in a record.
type RequestMeta struct {
	UserAgent    string
	ForwardedFor string
	RemoteAddr   string
}

func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		UserAgent:    r.Header.Get("User-Agent"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
		RemoteAddr:   r.RemoteAddr,
	}
}

// ClientIP prefers X-Forwarded-For, kept verbatim, over the transport address.
func (m RequestMeta) ClientIP() string {
	if fwd := strings.TrimSpace(m.ForwardedFor); fwd != "" {
		return m.ForwardedFor
	}
	if m.RemoteAddr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(m.RemoteAddr); err == nil {
		return host
	}
	return m.RemoteAddr
}
