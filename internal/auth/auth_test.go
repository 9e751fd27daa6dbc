package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/toolmux/internal/config"
)

func TestHTTPClientNoAuthIsDefault(t *testing.T) {
	client := HTTPClient(config.BackendConfig{Name: "plain", Type: "sse", URL: "https://example.com"})
	assert.Same(t, http.DefaultClient, client)
}

func TestHTTPClientStaticHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := HTTPClient(config.BackendConfig{
		Name:    "with-headers",
		Type:    "sse",
		URL:     srv.URL,
		Headers: map[string]string{"X-Team": "platform", "X-Env": "ci"},
	})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "platform", got.Get("X-Team"))
	assert.Equal(t, "ci", got.Get("X-Env"))
}

func TestHTTPClientBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := HTTPClient(config.BackendConfig{
		Name:        "with-token",
		Type:        "streamable",
		URL:         srv.URL,
		BearerToken: "s3cret",
	})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer s3cret", got)
}

func TestHTTPClientHeaderBeatsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := HTTPClient(config.BackendConfig{
		Name:        "explicit-auth",
		Type:        "streamable",
		URL:         srv.URL,
		BearerToken: "ignored",
		Headers:     map[string]string{"Authorization": "Basic abc"},
	})

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Basic abc", got)
}

func TestHTTPClientDoesNotMutateRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := HTTPClient(config.BackendConfig{
		Name:    "clone-check",
		Headers: map[string]string{"X-Injected": "yes"},
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("X-Injected"), "original request must stay untouched")
}

func TestHTTPClientOAuthClientCredentials(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenSrv.Close()

	var got string
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer apiSrv.Close()

	client := HTTPClient(config.BackendConfig{
		Name: "corp",
		Type: "streamable",
		URL:  apiSrv.URL,
		OAuth: &config.OAuthConfig{
			TokenURL:     tokenSrv.URL,
			ClientID:     "toolmux-ci",
			ClientSecret: "hunter2",
			Scopes:       []string{"tools.invoke"},
		},
	})

	resp, err := client.Get(apiSrv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer issued-token", got)
}

func TestHTTPClientOAuthWithExtraHeaders(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"token_type":   "Bearer",
		})
	}))
	defer tokenSrv.Close()

	var got http.Header
	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer apiSrv.Close()

	client := HTTPClient(config.BackendConfig{
		Name:    "corp",
		Headers: map[string]string{"X-Team": "platform"},
		OAuth: &config.OAuthConfig{
			TokenURL: tokenSrv.URL,
			ClientID: "toolmux-ci",
		},
	})

	resp, err := client.Get(apiSrv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "platform", got.Get("X-Team"))
	assert.Equal(t, "Bearer issued-token", got.Get("Authorization"))
}
