package credentials

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreCredentialLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateCredential(ctx, VendorCredential{
		Provider: "openai",
		Kind:     KindAPIKey,
		Label:    "team key",
		APIKey:   "sk-test",
	})
	if err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an ID to be assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.GetCredential(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetCredential failed: %v", err)
	}
	if got.APIKey != "sk-test" || got.Label != "team key" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	list, err := store.ListCredentials(ctx)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 credential, got %d", len(list))
	}

	if err := store.DeleteCredential(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	if _, err := store.GetCredential(ctx, created.ID); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound after delete, got %v", err)
	}
	if err := store.DeleteCredential(ctx, created.ID); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound on double delete, got %v", err)
	}
}

func TestMemoryStoreCredentialForProviderPrefersNewest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.CreateCredential(ctx, VendorCredential{Provider: "anthropic", Kind: KindAPIKey, APIKey: "old-key"})
	if err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}
	// Distinct CreatedAt timestamps.
	time.Sleep(5 * time.Millisecond)
	newer, err := store.CreateCredential(ctx, VendorCredential{Provider: "anthropic", Kind: KindAPIKey, APIKey: "new-key"})
	if err != nil {
		t.Fatalf("CreateCredential failed: %v", err)
	}

	got, err := store.CredentialForProvider(ctx, "anthropic")
	if err != nil {
		t.Fatalf("CredentialForProvider failed: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("expected newest credential %s, got %s", newer.ID, got.ID)
	}

	if _, err := store.CredentialForProvider(ctx, "cohere"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound for provider with no credential, got %v", err)
	}
}

func TestMemoryStoreTouchCredential(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, _ := store.CreateCredential(ctx, VendorCredential{Provider: "openai", Kind: KindAPIKey, APIKey: "sk-test"})
	if created.LastUsedAt != nil {
		t.Fatal("fresh credential must not have LastUsedAt")
	}

	if err := store.TouchCredential(ctx, created.ID); err != nil {
		t.Fatalf("TouchCredential failed: %v", err)
	}
	got, _ := store.GetCredential(ctx, created.ID)
	if got.LastUsedAt == nil {
		t.Error("expected LastUsedAt after touch")
	}
}

func TestMemoryStoreTokenLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.IssueToken(ctx, "openai", "checkout", time.Minute)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if token.Provider != "openai" || token.Project != "checkout" {
		t.Errorf("unexpected token scope: %+v", token)
	}

	validated, err := store.ValidateToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if validated.ID != token.ID {
		t.Errorf("expected token %s, got %s", token.ID, validated.ID)
	}

	if err := store.RevokeToken(ctx, token.ID); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if _, err := store.ValidateToken(ctx, token.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid after revoke, got %v", err)
	}
}

func TestMemoryStoreExpiredTokenRejected(t *testing.T) {
	store := NewMemoryStore()
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

func TestMemoryStoreIssueTokenDefaultsTTL(t *testing.T) {
	store := NewMemoryStore()

	token, err := store.IssueToken(context.Background(), "", "default", 0)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	ttl := token.ExpiresAt.Sub(token.CreatedAt)
	if ttl != DefaultTokenTTL {
		t.Errorf("expected default TTL %v, got %v", DefaultTokenTTL, ttl)
	}
}

func TestMemoryStoreUnknownTokenInvalid(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.ValidateToken(context.Background(), "lbt_never_minted"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
	if err := store.RevokeToken(context.Background(), "no-such-id"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid on unknown revoke, got %v", err)
	}
}
