package httputil

import (
	"crypto/tls"
	"net/http"
	"testing"
)

func TestClientIPRemoteAddr(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.168.1.1:12345", "192.168.1.1"},
		{"[::1]:12345", "::1"},
		{"192.168.1.1", "192.168.1.1"},
	}
	for _, tt := range tests {
		r := &http.Request{RemoteAddr: tt.remoteAddr}
		got := ClientIP(r, false)
		if got != tt.want {
			t.Errorf("ClientIP(%q, false) = %q, want %q", tt.remoteAddr, got, tt.want)
		}
	}
}

func TestClientIPTrustProxy(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		xri  string
		want string
	}{
		{"XFF single IP", "203.0.113.7", "", "203.0.113.7"},
		{"XFF chain takes first hop", "203.0.113.7, 10.0.0.1, 10.0.0.2", "", "203.0.113.7"},
		{"XFF with port", "203.0.113.7:5555", "", "203.0.113.7"},
		{"XFF IPv6", "[2001:db8::1]:443", "", "2001:db8::1"},
		{"X-Real-IP fallback", "", "198.51.100.4", "198.51.100.4"},
		{"XFF wins over X-Real-IP", "203.0.113.7", "198.51.100.4", "203.0.113.7"},
		{"junk XFF falls through to X-Real-IP", "<script>", "198.51.100.4", "198.51.100.4"},
		{"junk everywhere falls back to RemoteAddr", "unknown", "n/a", "10.0.0.1"},
		{"no proxy headers", "", "", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: "10.0.0.1:1234", Header: http.Header{}}
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r, true); got != tt.want {
				t.Errorf("ClientIP(trustProxy=true) = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIPIgnoresHeadersWhenNotTrusted(t *testing.T) {
	r := &http.Request{RemoteAddr: "10.0.0.1:1234", Header: http.Header{}}
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	r.Header.Set("X-Real-IP", "5.6.7.8")

	if got := ClientIP(r, false); got != "10.0.0.1" {
		t.Errorf("ClientIP(trustProxy=false) = %q, want 10.0.0.1", got)
	}
}

func TestIsHTTPS(t *testing.T) {
	plain := &http.Request{Header: http.Header{}}
	if IsHTTPS(plain, true) {
		t.Error("plain request reported as HTTPS")
	}

	proxied := &http.Request{Header: http.Header{"X-Forwarded-Proto": {"HTTPS"}}}
	if !IsHTTPS(proxied, true) {
		t.Error("trusted X-Forwarded-Proto ignored")
	}
	if IsHTTPS(proxied, false) {
		t.Error("untrusted X-Forwarded-Proto honoured")
	}

	direct := &http.Request{TLS: &tls.ConnectionState{}}
	if !IsHTTPS(direct, false) {
		t.Error("TLS request not reported as HTTPS")
	}
}
