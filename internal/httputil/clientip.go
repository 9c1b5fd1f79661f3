// Package httputil has request helpers shared by the API and the session
// manager.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller's address for logs. Forwarding headers are
// consulted only when trustProxy is set, and a header value that is not an
// IP address is ignored rather than logged.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); first != "" {
			if ip := parseIP(first); ip != "" {
				return ip
			}
		}
		if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseIP accepts a bare address or host:port and returns the address.
func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}

// IsHTTPS reports whether the client reached us over TLS, directly or via a
// trusted proxy that sets X-Forwarded-Proto. The session cookie is marked
// Secure only then, so plain-HTTP local runs still keep their session.
func IsHTTPS(r *http.Request, trustProxy bool) bool {
	if r.TLS != nil {
		return true
	}
	return trustProxy && strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}
