// Package auth builds authorized HTTP clients for backends reached over
// SSE or streamable HTTP transports. It supports static headers, static
// bearer tokens, and OAuth2 client-credentials token sources.
package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/standardbeagle/toolmux/internal/config"
)

// HTTPClient returns an *http.Client that applies the backend's configured
// headers and credentials to every request. Returns http.DefaultClient
// when the descriptor carries no headers or credentials.
func HTTPClient(cfg config.BackendConfig) *http.Client {
	base := http.DefaultClient

	if cfg.OAuth != nil && cfg.OAuth.TokenURL != "" {
		cc := &clientcredentials.Config{
			TokenURL:     cfg.OAuth.TokenURL,
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			Scopes:       cfg.OAuth.Scopes,
		}
		base = &http.Client{
			Transport: &oauth2.Transport{
				Source: cc.TokenSource(context.Background()),
				Base:   http.DefaultTransport,
			},
		}
	}

	if len(cfg.Headers) == 0 && cfg.BearerToken == "" {
		return base
	}

	clone := *base
	clone.Transport = &headerTransport{
		next:    roundTripperOrDefault(base.Transport),
		headers: cfg.Headers,
		bearer:  cfg.BearerToken,
	}
	return &clone
}

// headerTransport injects static headers and a bearer token into requests.
type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
	bearer  string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone before mutating; RoundTrippers must not modify the original.
	out := req.Clone(req.Context())
	for k, v := range t.headers {
		out.Header.Set(k, v)
	}
	if t.bearer != "" && out.Header.Get("Authorization") == "" {
		out.Header.Set("Authorization", "Bearer "+t.bearer)
	}
	return t.next.RoundTrip(out)
}

func roundTripperOrDefault(next http.RoundTripper) http.RoundTripper {
	if next != nil {
		return next
	}
	return http.DefaultTransport
}
