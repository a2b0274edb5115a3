package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/stockalert/pkg/clientip"
)

func request(remote string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = remote
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestGetIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"remote addr", "203.0.113.7:5123", nil, "203.0.113.7"},
		{"remote addr without port", "203.0.113.7", nil, "203.0.113.7"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"cloudflare header first", "10.0.0.1:1", map[string]string{"CF-Connecting-IP": "198.51.100.4", "X-Real-IP": "198.51.100.5"}, "198.51.100.4"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.5"}, "198.51.100.5"},
		{"forwarded for leftmost", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"}, "198.51.100.9"},
		{"invalid header skipped", "10.0.0.1:1", map[string]string{"X-Real-IP": "not-an-ip", "X-Forwarded-For": "bogus, 198.51.100.9"}, "198.51.100.9"},
		{"ipv4 mapped is unmapped", "[::ffff:192.0.2.1]:80", nil, "192.0.2.1"},
		{"nothing valid", "garbage", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, clientip.GetIP(request(tt.remote, tt.headers)))
		})
	}
}

func TestResolver_TrustedProxies(t *testing.T) {
	t.Parallel()

	res, err := clientip.NewResolver(clientip.WithTrustedProxies("10.0.0.0/8", "192.0.2.10"))
	require.NoError(t, err)

	t.Run("untrusted peer cannot spoof headers", func(t *testing.T) {
		t.Parallel()
		r := request("203.0.113.7:80", map[string]string{"X-Real-IP": "1.1.1.1", "X-Forwarded-For": "1.1.1.1"})
		assert.Equal(t, "203.0.113.7", res.IP(r))
	})

	t.Run("trusted peer header is used", func(t *testing.T) {
		t.Parallel()
		r := request("10.1.2.3:80", map[string]string{"X-Real-IP": "198.51.100.5"})
		assert.Equal(t, "198.51.100.5", res.IP(r))
	})

	t.Run("forwarded for skips trusted hops from the right", func(t *testing.T) {
		t.Parallel()
		r := request("192.0.2.10:80", map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.9, 10.0.0.5"})
		assert.Equal(t, "198.51.100.9", res.IP(r))
	})

	t.Run("all hops trusted", func(t *testing.T) {
		t.Parallel()
		r := request("10.0.0.1:80", map[string]string{"X-Forwarded-For": "10.0.0.9, 10.0.0.5"})
		assert.Equal(t, "10.0.0.9", res.IP(r))
	})
}

func TestNewResolver_InvalidProxy(t *testing.T) {
	t.Parallel()

	_, err := clientip.NewResolver(clientip.WithTrustedProxies("10.0.0.0/33"))
	assert.ErrorIs(t, err, clientip.ErrInvalidProxy)

	_, err = clientip.NewResolverFromConfig(clientip.Config{TrustedProxies: []string{"proxy.local"}})
	assert.ErrorIs(t, err, clientip.ErrInvalidProxy)
}

func TestResolver_CustomHeaders(t *testing.T) {
	t.Parallel()

	res, err := clientip.NewResolver(clientip.WithHeaders("Fly-Client-IP"))
	require.NoError(t, err)

	r := request("10.0.0.1:80", map[string]string{"Fly-Client-IP": "198.51.100.77", "X-Real-IP": "198.51.100.5"})
	assert.Equal(t, "198.51.100.77", res.IP(r))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = clientip.GetIPFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), request("203.0.113.7:5123", nil))
	assert.Equal(t, "203.0.113.7", got)
}

func TestGetIPFromContext_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, clientip.GetIPFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}
