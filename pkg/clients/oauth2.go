package clients

import (
	"net/http"

	"golang.org/x/oauth2"
)

// NewBearerTransport wraps base so every request carries
// "Authorization: Bearer <token>". Coda API tokens never expire, so a static
// token source is enough.
func NewBearerTransport(base http.RoundTripper, token string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}),
		Base: base,
	}
}
