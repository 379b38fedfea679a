package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "credentials.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreCredentialRoundTrip(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	created, err := store.CreateCredential(ctx, VendorCredential{
		Provider:     "azure-openai",
		Kind:         KindOAuth2,
		Label:        "entra app",
		ClientID:     "app-id",
		ClientSecret: "app-secret",
		TokenURL:     "https://login.microsoftonline.com/tenant/oauth2/v2.0/token",
		Scopes:       []string{"https://cognitiveservices.azure.com/.default"},
		BaseURL:      "https://myresource.openai.azure.com",
	})
	if err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	got, err := store.GetCredential(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.ClientID != "app-id" || got.ClientSecret != "app-secret" {
		t.Errorf("oauth2 material did not survive: %+v", got)
	}
	if len(got.Scopes) != 1 || got.Scopes[0] != "https://cognitiveservices.azure.com/.default" {
		t.Errorf("scopes did not survive the round trip: %v", got.Scopes)
	}
	if got.BaseURL != "https://myresource.openai.azure.com" {
		t.Errorf("base URL did not survive: %s", got.BaseURL)
	}

	byProvider, err := store.CredentialForProvider(ctx, "azure-openai")
	if err != nil {
		t.Fatalf("CredentialForProvider failed: %v", err)
	}
	if byProvider.ID != created.ID {
		t.Errorf("expected credential %s, got %s", created.ID, byProvider.ID)
	}

	if err := store.DeleteCredential(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	if _, err := store.GetCredential(ctx, created.ID); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound after delete, got %v", err)
	}
}

func TestSQLiteStoreListOrderAndTouch(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	first, _ := store.CreateCredential(ctx, VendorCredential{Provider: "openai", Kind: KindAPIKey, APIKey: "sk-one"})
	_, _ = store.CreateCredential(ctx, VendorCredential{Provider: "cohere", Kind: KindAPIKey, APIKey: "co-two"})

	list, err := store.ListCredentials(ctx)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(list))
	}

	if err := store.TouchCredential(ctx, first.ID); err != nil {
		t.Fatalf("TouchCredential failed: %v", err)
	}
	got, _ := store.GetCredential(ctx, first.ID)
	if got.LastUsedAt == nil {
		t.Error("expected LastUsedAt after touch")
	}
}

func TestSQLiteStoreTokenLifecycle(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	token, err := store.IssueToken(ctx, "gemini", "search", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	validated, err := store.ValidateToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if validated.Provider != "gemini" || validated.Project != "search" {
		t.Errorf("unexpected token scope: %+v", validated)
	}

	if err := store.RevokeToken(ctx, token.ID); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if _, err := store.ValidateToken(ctx, token.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid after revoke, got %v", err)
	}
}

func TestSQLiteStoreExpiredTokenRejected(t *testing.T) {
	store := newSQLiteTestStore(t)
	ctx := context.Background()

	token, err := store.IssueToken(ctx, "", "default", time.Millisecond)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := store.ValidateToken(ctx, token.Token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

// TestPostgresStoreContract runs the credential round trip against a real
// postgres when LOOMBRIDGE_TEST_POSTGRES_DSN is set; CI skips it otherwise.
func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("LOOMBRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOOMBRIDGE_TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresStore(dsn)
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	created, err := store.CreateCredential(ctx, VendorCredential{Provider: "openai", Kind: KindAPIKey, APIKey: "sk-contract"})
	if err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}
	defer func() { _ = store.DeleteCredential(ctx, created.ID) }()

	got, err := store.GetCredential(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.APIKey != "sk-contract" {
		t.Errorf("expected sk-contract, got %s", got.APIKey)
	}

	token, err := store.IssueToken(ctx, "openai", "contract", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	defer func() { _ = store.RevokeToken(ctx, token.ID) }()
	if _, err := store.ValidateToken(ctx, token.Token); err != nil {
		t.Errorf("ValidateToken failed: %v", err)
	}
}
