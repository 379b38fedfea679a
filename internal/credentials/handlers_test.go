package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/loomworks/ai-bridge/internal/usagelog"
	"github.com/loomworks/ai-bridge/providers"
)

const testAdminKey = "test-admin-key"

func setupAdminRouter(usage usagelog.Reader) (*Handlers, chi.Router) {
	h := &Handlers{
		Store:    NewMemoryStore(),
		Registry: providers.Default(),
		Usage:    usage,
		Resolver: NewTokenResolver(),
	}
	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(AdminAuth(testAdminKey))
		r.Mount("/", h.Routes())
	})
	return h, r
}

func adminRequest(method, url, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	return req
}

func TestCreateCredentialMasksResponse(t *testing.T) {
	_, r := setupAdminRouter(nil)

	body := `{"provider":"openai","kind":"api_key","api_key":"sk-proj-abcdefghijklmnop"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credentials", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created VendorCredential
	_ = json.NewDecoder(w.Body).Decode(&created)
	if created.ID == "" {
		t.Error("expected an ID to be assigned")
	}
	if created.APIKey != "sk-p...mnop" {
		t.Errorf("response must carry the masked key, got %s", created.APIKey)
	}
}

func TestCreateCredentialUnknownProvider(t *testing.T) {
	_, r := setupAdminRouter(nil)

	body := `{"provider":"hal9000","kind":"api_key","api_key":"sk-test"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credentials", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCreateCredentialMissingMaterial(t *testing.T) {
	_, r := setupAdminRouter(nil)

	body := `{"provider":"openai","kind":"api_key"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credentials", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListCredentialsMasked(t *testing.T) {
	h, r := setupAdminRouter(nil)
	_, _ = h.Store.CreateCredential(context.Background(), VendorCredential{
		Provider: "anthropic", Kind: KindAPIKey, APIKey: "sk-ant-REDACTED",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/admin/credentials", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data []VendorCredential `json:"data"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 credential, got %d", len(resp.Data))
	}
	if resp.Data[0].APIKey != "sk-a...cret" {
		t.Errorf("listing must mask secrets, got %s", resp.Data[0].APIKey)
	}
}

func TestDeleteCredential(t *testing.T) {
	h, r := setupAdminRouter(nil)
	created, _ := h.Store.CreateCredential(context.Background(), VendorCredential{
		Provider: "openai", Kind: KindAPIKey, APIKey: "sk-test",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/credentials/"+created.ID, ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/admin/credentials/"+created.ID, ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestIssueTokenReturnsBearerValue(t *testing.T) {
	_, r := setupAdminRouter(nil)

	body := `{"provider":"openai","project":"checkout","ttl_seconds":120}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/tokens", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var token RequestToken
	_ = json.NewDecoder(w.Body).Decode(&token)
	if len(token.Token) < 5 || token.Token[:4] != "lbt_" {
		t.Errorf("expected lbt_ bearer value, got %q", token.Token)
	}
	if token.Provider != "openai" || token.Project != "checkout" {
		t.Errorf("unexpected token scope: %+v", token)
	}
	if ttl := token.ExpiresAt.Sub(token.CreatedAt); ttl != 2*time.Minute {
		t.Errorf("expected 2m TTL, got %v", ttl)
	}
}

func TestIssueTokenUnknownProvider(t *testing.T) {
	_, r := setupAdminRouter(nil)

	body := `{"provider":"hal9000"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/tokens", body))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRevokeTokenInvalidatesBearer(t *testing.T) {
	h, r := setupAdminRouter(nil)
	token, _ := h.Store.IssueToken(context.Background(), "", "default", time.Minute)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/tokens/"+token.ID, ""))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	if _, err := h.Store.ValidateToken(context.Background(), token.Token); err == nil {
		t.Error("expected revoked token to fail validation")
	}
}

func TestCredentialProbeHitsVendorModels(t *testing.T) {
	vendor := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("expected /models, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-live" {
			t.Errorf("expected Bearer sk-live, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer vendor.Close()

	h, r := setupAdminRouter(nil)
	created, _ := h.Store.CreateCredential(context.Background(), VendorCredential{
		Provider: "openai", Kind: KindAPIKey, APIKey: "sk-live", BaseURL: vendor.URL,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credentials/"+created.ID+"/test", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		OK           bool `json:"ok"`
		VendorStatus int  `json:"vendor_status"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if !resp.OK || resp.VendorStatus != http.StatusOK {
		t.Errorf("expected ok probe, got %+v", resp)
	}

	got, _ := h.Store.GetCredential(context.Background(), created.ID)
	if got.LastUsedAt == nil {
		t.Error("successful probe must touch the credential")
	}
}

func TestCredentialProbeSigV4NotSupported(t *testing.T) {
	h, r := setupAdminRouter(nil)
	created, _ := h.Store.CreateCredential(context.Background(), VendorCredential{
		Provider: "bedrock", Kind: KindAWS,
		AccessKeyID: "AKIA123", SecretAccessKey: "secret", Region: "us-east-1",
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodPost, "/admin/credentials/"+created.ID+"/test", ""))

	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for SigV4 provider, got %d", w.Code)
	}
}

func TestUsageListing(t *testing.T) {
	ring := usagelog.NewRing(16)
	for _, provider := range []string{"openai", "anthropic", "gemini"} {
		_ = ring.Write(context.Background(), usagelog.Record{
			Project: "default", Provider: provider, Model: "m", StatusCode: 200,
		})
	}

	_, r := setupAdminRouter(ring)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, adminRequest(http.MethodGet, "/admin/usage?limit=2", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Data []usagelog.Record `json:"data"`
	}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 records, got %d", len(resp.Data))
	}
	if resp.Data[0].Provider != "gemini" {
		t.Errorf("expected newest record first, got %s", resp.Data[0].Provider)
	}
}

func TestAdminAuthRejectsBadKey(t *testing.T) {
	_, r := setupAdminRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}
}

func TestAdminAuthDisabledWithoutKey(t *testing.T) {
	h := &Handlers{Store: NewMemoryStore(), Registry: providers.Default(), Resolver: NewTokenResolver()}
	r := chi.NewRouter()
	r.Use(AdminAuth(""))
	r.Mount("/admin", h.Routes())

	req := httptest.NewRequest(http.MethodGet, "/admin/credentials", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no admin key is configured, got %d", w.Code)
	}
}
