package util

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "NO_PROXY", "no_proxy", "REQUEST_METHOD"} {
		t.Setenv(k, "")
	}
}

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	require.NoError(t, err)
	u, err := fn(req)
	require.NoError(t, err)
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc_ExplicitSettings(t *testing.T) {
	clearProxyEnv(t)
	fn := NewProxyFunc("http://plain.proxy:3128", "http://tls.proxy:3129", "internal.example,.corp.example")

	assert.Equal(t, "http://plain.proxy:3128", proxyFor(t, fn, "http://stories.example/a.txt"))
	assert.Equal(t, "http://tls.proxy:3129", proxyFor(t, fn, "https://stories.example/a.txt"))
	assert.Empty(t, proxyFor(t, fn, "http://internal.example/a.txt"))
	assert.Empty(t, proxyFor(t, fn, "https://wiki.corp.example/a.txt"))
	assert.Empty(t, proxyFor(t, fn, "http://localhost:8080/parse"))
}

func TestNewProxyFunc_EnvironmentFallback(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("HTTP_PROXY", "http://env.proxy:3128")
	t.Setenv("NO_PROXY", "skip.example")

	fn := NewProxyFunc("", "", "")
	assert.Equal(t, "http://env.proxy:3128", proxyFor(t, fn, "http://stories.example/a.txt"))
	assert.Empty(t, proxyFor(t, fn, "http://skip.example/a.txt"))
	assert.Empty(t, proxyFor(t, fn, "https://stories.example/a.txt"))

	// an explicit no_proxy replaces the environment's
	fn = NewProxyFunc("", "", "stories.example")
	assert.Empty(t, proxyFor(t, fn, "http://stories.example/a.txt"))
	assert.Equal(t, "http://env.proxy:3128", proxyFor(t, fn, "http://skip.example/a.txt"))
}

func TestNewProxyFunc_NoSettings(t *testing.T) {
	clearProxyEnv(t)
	assert.Empty(t, proxyFor(t, NewProxyFunc("", "", ""), "http://stories.example/a.txt"))
}

func TestNewTransport_InstallsProxy(t *testing.T) {
	clearProxyEnv(t)
	tr := NewTransport("http://plain.proxy:3128", "", "")
	require.NotNil(t, tr.Proxy)
	assert.Equal(t, "http://plain.proxy:3128", proxyFor(t, tr.Proxy, "http://stories.example/"))
}
