// Package credentials stores the two secrets the bridge deals in: long-lived
// vendor credentials (API keys, OAuth2 client credentials, AWS key pairs)
// keyed by provider, and the short-lived request tokens clients present to
// the forwarder. Vendor secrets never leave the server; request tokens are
// minted per invocation and expire on their own.
package credentials

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the shape of a vendor credential's secret material.
type Kind string

const (
	// KindAPIKey is a single opaque vendor API key.
	KindAPIKey Kind = "api_key"
	// KindOAuth2 is an OAuth2 client-credentials grant (azure-openai Entra ID).
	KindOAuth2 Kind = "oauth2"
	// KindAWS is an access key pair plus region for SigV4 providers.
	KindAWS Kind = "aws"
)

// DefaultTokenTTL is how long a minted request token stays valid when the
// caller does not pick a TTL.
const DefaultTokenTTL = 10 * time.Minute

var (
	// ErrCredentialNotFound is returned when no credential matches the lookup.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrTokenInvalid is returned for unknown or revoked request tokens.
	ErrTokenInvalid = errors.New("request token invalid")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("request token expired")
)

// VendorCredential is a stored secret for one provider.
type VendorCredential struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Kind     Kind   `json:"kind"`
	Label    string `json:"label,omitempty"`

	// api_key material.
	APIKey string `json:"api_key,omitempty"`

	// oauth2 material.
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	TokenURL     string   `json:"token_url,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`

	// aws material.
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	Region          string `json:"region,omitempty"`

	// BaseURL overrides the catalog's vendor URL. Azure OpenAI needs this:
	// every resource has its own endpoint.
	BaseURL string `json:"base_url,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Validate checks that the credential carries the material its kind needs.
func (c VendorCredential) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	switch c.Kind {
	case KindAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("api_key credential requires api_key")
		}
	case KindOAuth2:
		if c.ClientID == "" || c.ClientSecret == "" || c.TokenURL == "" {
			return fmt.Errorf("oauth2 credential requires client_id, client_secret and token_url")
		}
	case KindAWS:
		if c.AccessKeyID == "" || c.SecretAccessKey == "" || c.Region == "" {
			return fmt.Errorf("aws credential requires access_key_id, secret_access_key and region")
		}
	default:
		return fmt.Errorf("unknown credential kind %q", c.Kind)
	}
	return nil
}

// Masked returns a copy safe for listings: secret fields keep only their
// first and last four characters.
func (c VendorCredential) Masked() VendorCredential {
	masked := c
	masked.APIKey = maskSecret(c.APIKey)
	masked.ClientSecret = maskSecret(c.ClientSecret)
	masked.SecretAccessKey = maskSecret(c.SecretAccessKey)
	return masked
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "..."
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// RequestToken is a short-lived bearer token a client presents to the
// forwarder. Provider scopes the token to one catalog entry; empty means any.
type RequestToken struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Provider  string    `json:"provider,omitempty"`
	Project   string    `json:"project"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t RequestToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Store persists vendor credentials and request tokens.
type Store interface {
	CreateCredential(ctx context.Context, cred VendorCredential) (VendorCredential, error)
	GetCredential(ctx context.Context, id string) (VendorCredential, error)
	// CredentialForProvider returns the newest credential stored for a
	// provider. The forwarder calls this on every proxied request.
	CredentialForProvider(ctx context.Context, providerID string) (VendorCredential, error)
	ListCredentials(ctx context.Context) ([]VendorCredential, error)
	DeleteCredential(ctx context.Context, id string) error
	TouchCredential(ctx context.Context, id string) error

	IssueToken(ctx context.Context, providerID, project string, ttl time.Duration) (RequestToken, error)
	ValidateToken(ctx context.Context, token string) (RequestToken, error)
	RevokeToken(ctx context.Context, id string) error

	Close() error
}

// NewStoreFromEnv selects the store backend from CREDENTIAL_STORE_BACKEND
// (memory default, sqlite, postgres) and CREDENTIAL_STORE_DSN.
func NewStoreFromEnv() (Store, error) {
	backend := os.Getenv("CREDENTIAL_STORE_BACKEND")
	dsn := os.Getenv("CREDENTIAL_STORE_DSN")
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", backend)
	}
}

func newCredentialID() string {
	return uuid.NewString()
}

// newTokenValue mints the bearer value for a request token.
func newTokenValue() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return "lbt_" + hex.EncodeToString(b)
}
