package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noRedirects(srv *httptest.Server) *http.Client {
	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return client
}

func TestStaticRoutes(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", body)
	assert.Equal(t, "default-src 'self'", resp.Header.Get("Content-Security-Policy"))
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))

	resp, body = get(t, srv.URL+"/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "designsprint v"+releaseVersion+"\n", body)

	resp, body = get(t, srv.URL+"/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "User-agent: Amazonbot")

	resp, body = get(t, srv.URL+"/sprint/abc123")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "../assets/sprint/app.js")

	resp, _ = get(t, srv.URL+"/assets/sprint/app.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/javascript; charset=utf-8", resp.Header.Get("Content-Type"))

	resp, _ = get(t, srv.URL+"/assets/sprint/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv.URL+"/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "profiling is off unless asked for")
}

func TestRedirects(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	client := noRedirects(srv)

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "/sprint", resp.Header.Get("Location"))

	resp, err = client.Get(srv.URL + "/sprint")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Regexp(t, `^/sprint/[A-Za-z0-9]{8}$`, resp.Header.Get("Location"))
}

func TestPrefixedRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.prefix = "/games/"
	cfg.profile = true
	srv := newTestServer(t, cfg)
	client := noRedirects(srv)

	resp, err := client.Get(srv.URL + "/games/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "/games/sprint", resp.Header.Get("Location"))

	resp, body := get(t, srv.URL+"/games/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", body)

	resp, _ = get(t, srv.URL+"/games/pprof/cmdline")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQRCode(t *testing.T) {
	srv := newTestServer(t, testConfig(t))

	resp, body := get(t, srv.URL+"/sprint/abc123/qr")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix([]byte(body), []byte("\x89PNG\r\n\x1a\n")))
}

func TestSecurityHeadersOverTLS(t *testing.T) {
	cfg := testConfig(t)
	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"

	w := httptest.NewRecorder()
	securityHeaders(cfg, w)

	assert.Contains(t, w.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{name: "remote addr", remote: "192.0.2.1:1234", want: "192.0.2.1:1234"},
		{name: "ipv6", remote: "[2001:db8::1]:1234", want: "[2001:db8::1]:1234"},
		{name: "cloudflare", remote: "192.0.2.1:1234", header: map[string]string{"CF-Connecting-IP": "198.51.100.7"}, want: "198.51.100.7:1234"},
		{name: "x-real-ip", remote: "192.0.2.1:1234", header: map[string]string{"X-Real-IP": "198.51.100.8"}, want: "198.51.100.8:1234"},
		{name: "bogus header", remote: "192.0.2.1:1234", header: map[string]string{"X-Real-IP": "not-an-ip"}, want: "192.0.2.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, realIP(r))
		})
	}
}

func TestHumanReadableSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{bytes: 0, want: "0 B"},
		{bytes: 999, want: "999 B"},
		{bytes: 1000, want: "1.0 kB"},
		{bytes: 1500, want: "1.5 kB"},
		{bytes: 5 * 1024 * 1024, want: "5.2 MB"},
		{bytes: 3_000_000_000, want: "3.0 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, humanReadableSize(tt.bytes), "%d bytes", tt.bytes)
	}
}

func TestServeDownload(t *testing.T) {
	w := httptest.NewRecorder()

	n, err := serveDownload(w, "design sprint.txt", "text/plain; charset=utf-8", []byte("Score: 120 points"))
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	assert.Equal(t, `attachment; filename="design sprint.txt"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "17", w.Header().Get("Content-Length"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Score: 120 points", w.Body.String())
}

func TestNewPageEscapes(t *testing.T) {
	page := newPage("<Oops>", "a & b")

	assert.Contains(t, page, "&lt;Oops&gt;")
	assert.Contains(t, page, "a &amp; b")
	assert.NotContains(t, page, "<Oops>")
}
