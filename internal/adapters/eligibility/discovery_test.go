package eligibility

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveryServer(t *testing.T, tokenEndpoint func(base string) string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         tokenEndpoint(srv.URL),
			"jwks_uri":               srv.URL + "/keys",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverTokenURL(t *testing.T) {
	srv := discoveryServer(t, func(base string) string { return base + "/oauth/token" })

	got, err := DiscoverTokenURL(t.Context(), srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/oauth/token", got)
}

func TestDiscoverTokenURLMissingEndpoint(t *testing.T) {
	srv := discoveryServer(t, func(string) string { return "" })

	_, err := DiscoverTokenURL(t.Context(), srv.URL, srv.Client())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not advertise")
}

func TestDiscoverTokenURLErrors(t *testing.T) {
	_, err := DiscoverTokenURL(t.Context(), "", nil)
	require.Error(t, err)

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	_, err = DiscoverTokenURL(t.Context(), srv.URL, srv.Client())
	require.Error(t, err)
}
