package security

import (
	"net/http"
	"strings"
)

// hopHeaders are connection-scoped and never forwarded
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// SanitizeHeaders returns a copy of headers without credentials and cookies,
// safe to log
func SanitizeHeaders(headers http.Header) http.Header {
	sensitiveHeaders := []string{
		"Authorization",
		"Cookie",
		"Set-Cookie",
		"X-CSRF-Token",
	}

	sanitized := headers.Clone()
	if sanitized == nil {
		sanitized = http.Header{}
	}
	for _, header := range sensitiveHeaders {
		sanitized.Del(header)
	}
	return sanitized
}

// ForwardHeaders copies an inbound request's headers for an upstream call.
// Authorization is kept so the upstream sees the operator; cookies, hop-by-hop
// and length headers are dropped.
func ForwardHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = http.Header{}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
	// Connection may list further hop-by-hop headers
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				dst.Del(name)
			}
		}
	}
	dst.Del("Cookie")
	dst.Del("Host")
	dst.Del("Content-Length")
	dst.Del("Accept-Encoding")
	return dst
}
