package credentials

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenResolver turns a stored vendor credential into the bearer value the
// forwarder injects upstream. API keys pass through; OAuth2 credentials are
// exchanged for an access token via the client-credentials grant, with the
// token source cached per credential so refreshes are reused across
// requests.
type TokenResolver struct {
	mu      sync.Mutex
	sources map[string]oauth2.TokenSource
}

// NewTokenResolver creates an empty resolver.
func NewTokenResolver() *TokenResolver {
	return &TokenResolver{sources: make(map[string]oauth2.TokenSource)}
}

// Resolve returns the secret to place in the provider's auth header.
// AWS credentials have no bearer form; the Bedrock forwarder consumes them
// directly as a SigV4 signing key pair.
func (r *TokenResolver) Resolve(_ context.Context, cred VendorCredential) (string, error) {
	switch cred.Kind {
	case KindAPIKey:
		return cred.APIKey, nil
	case KindOAuth2:
		tok, err := r.source(cred).Token()
		if err != nil {
			return "", fmt.Errorf("oauth2 token for credential %s: %w", cred.ID, err)
		}
		return tok.AccessToken, nil
	case KindAWS:
		return "", fmt.Errorf("aws credential %s has no bearer token form", cred.ID)
	default:
		return "", fmt.Errorf("unknown credential kind %q", cred.Kind)
	}
}

// Forget drops the cached token source for a credential, e.g. after the
// credential was deleted or its secret rotated.
func (r *TokenResolver) Forget(credentialID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sources, credentialID)
}

func (r *TokenResolver) source(cred VendorCredential) oauth2.TokenSource {
	r.mu.Lock()
	defer r.mu.Unlock()

	if src, ok := r.sources[cred.ID]; ok {
		return src
	}
	cfg := &clientcredentials.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		TokenURL:     cred.TokenURL,
		Scopes:       cred.Scopes,
	}
	// The source outlives any single request, so it must not inherit a
	// request context.
	src := cfg.TokenSource(context.Background())
	r.sources[cred.ID] = src
	return src
}
