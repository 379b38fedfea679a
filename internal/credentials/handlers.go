package credentials

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/loomworks/ai-bridge/internal/usagelog"
	"github.com/loomworks/ai-bridge/providers"
)

// maxTokenTTL caps client-requested token lifetimes.
const maxTokenTTL = 24 * time.Hour

// Handlers holds dependencies for the admin HTTP surface: credential CRUD,
// request-token minting, and usage listing.
type Handlers struct {
	Store    Store
	Registry *providers.Registry
	Usage    usagelog.Reader
	Resolver *TokenResolver

	// HTTPClient runs credential test probes; defaults to a 15s-timeout
	// client when nil.
	HTTPClient *http.Client
}

// Routes returns a chi.Router with all admin endpoints mounted. Mount it
// behind AdminAuth.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/credentials", h.createCredential)
	r.Get("/credentials", h.listCredentials)
	r.Get("/credentials/{id}", h.getCredential)
	r.Delete("/credentials/{id}", h.deleteCredential)
	r.Post("/credentials/{id}/test", h.testCredential)

	r.Post("/tokens", h.issueToken)
	r.Delete("/tokens/{id}", h.revokeToken)

	r.Get("/usage", h.listUsage)

	return r
}

func (h *Handlers) createCredential(w http.ResponseWriter, r *http.Request) {
	var cred VendorCredential
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "", "invalid_request")
		return
	}

	if _, err := h.Registry.Find(cred.Provider); err != nil {
		writeError(w, http.StatusBadRequest, "unknown provider: "+cred.Provider, "", "unknown_provider")
		return
	}
	if err := cred.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "", "invalid_credential")
		return
	}

	created, err := h.Store.CreateCredential(r.Context(), cred)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created.Masked())
}

func (h *Handlers) listCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.Store.ListCredentials(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}

	masked := make([]VendorCredential, 0, len(creds))
	for _, cred := range creds {
		masked = append(masked, cred.Masked())
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": masked})
}

func (h *Handlers) getCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.Store.GetCredential(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "credential not found", "", "resource_not_found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cred.Masked())
}

func (h *Handlers) deleteCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeleteCredential(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "credential not found", "", "resource_not_found")
		return
	}
	if h.Resolver != nil {
		h.Resolver.Forget(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// testCredential probes the vendor's list-models endpoint with the stored
// credential and reports whether the vendor accepted it.
func (h *Handlers) testCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.Store.GetCredential(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "credential not found", "", "resource_not_found")
		return
	}

	desc, err := h.Registry.Find(cred.Provider)
	if err != nil {
		writeError(w, http.StatusConflict, "credential provider is no longer in the catalog", "", "unknown_provider")
		return
	}
	if desc.Auth.Kind == providers.AuthSigV4 {
		writeError(w, http.StatusNotImplemented, "credential tests are not supported for SigV4 providers", "", "not_implemented")
		return
	}
	if desc.ModelsPath == "" {
		writeError(w, http.StatusNotImplemented, "provider does not expose a model listing endpoint", "", "not_implemented")
		return
	}

	secret, err := h.Resolver.Resolve(r.Context(), cred)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error(), "", "credential_resolve_failed")
		return
	}

	baseURL := desc.BaseURL
	if cred.BaseURL != "" {
		baseURL = cred.BaseURL
	}

	probe, err := http.NewRequestWithContext(r.Context(), http.MethodGet, baseURL+desc.ModelsPath, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}
	for name, value := range desc.Auth.Headers(secret) {
		probe.Header.Set(name, value)
	}

	resp, err := h.httpClient().Do(probe)
	if err != nil {
		writeError(w, http.StatusBadGateway, "vendor unreachable: "+err.Error(), "", "vendor_unreachable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok {
		_ = h.Store.TouchCredential(r.Context(), cred.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":            ok,
		"vendor_status": resp.StatusCode,
	})
}

func (h *Handlers) issueToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Provider   string `json:"provider"`
		Project    string `json:"project"`
		TTLSeconds int    `json:"ttl_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "", "invalid_request")
		return
	}

	if body.Provider != "" {
		if _, err := h.Registry.Find(body.Provider); err != nil {
			writeError(w, http.StatusBadRequest, "unknown provider: "+body.Provider, "", "unknown_provider")
			return
		}
	}
	if body.Project == "" {
		body.Project = "default"
	}

	ttl := time.Duration(body.TTLSeconds) * time.Second
	if ttl > maxTokenTTL {
		writeError(w, http.StatusBadRequest, "ttl_seconds exceeds the 24h maximum", "", "invalid_request")
		return
	}

	token, err := h.Store.IssueToken(r.Context(), body.Provider, body.Project, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}

	// The bearer value is returned exactly once, at mint time.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(token)
}

func (h *Handlers) revokeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.RevokeToken(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "token not found", "", "resource_not_found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listUsage(w http.ResponseWriter, r *http.Request) {
	if h.Usage == nil {
		writeError(w, http.StatusNotImplemented, "usage accounting is not enabled", "", "not_implemented")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit: must be a positive integer", "", "invalid_request")
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}

	records, err := h.Usage.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list usage records", "", "internal_error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": records,
		"summary": map[string]interface{}{
			"returned_records": len(records),
		},
	})
}

func (h *Handlers) httpClient() *http.Client {
	if h.HTTPClient != nil {
		return h.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}
