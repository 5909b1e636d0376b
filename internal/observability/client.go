package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientInfo identifies the caller of a bridge request.
type ClientInfo struct {
	IP        string
	DeviceID  string
	RequestID string
}

func ClientFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		IP:        IPFromRequest(r),
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
	}
}

// IPFromRequest prefers the first X-Forwarded-For hop over the socket peer.
func IPFromRequest(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
