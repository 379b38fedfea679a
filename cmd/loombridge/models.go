package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/loomworks/ai-bridge/internal/credentials"
	"github.com/loomworks/ai-bridge/internal/logging"
	"github.com/loomworks/ai-bridge/providers"
	"github.com/tidwall/gjson"
)

// liveClient talks to vendor list-models endpoints during live discovery.
var liveClient = &http.Client{Timeout: 15 * time.Second}

// providerSummary is the public catalog listing entry. It deliberately
// carries no auth material beyond the scheme kind.
type providerSummary struct {
	ID                string `json:"id"`
	DisplayName       string `json:"display_name"`
	Wire              string `json:"wire"`
	AuthKind          string `json:"auth_kind"`
	LanguageModels    int    `json:"language_models"`
	ImageModels       int    `json:"image_models"`
	SetupInstructions string `json:"setup_instructions,omitempty"`
	DocsURL           string `json:"docs_url,omitempty"`
}

// modelEntry flattens a language or image model into one listing row tagged
// with its modality.
type modelEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Modality    string `json:"modality"`

	FunctionCalling  bool     `json:"function_calling,omitempty"`
	Vision           bool     `json:"vision,omitempty"`
	Streaming        bool     `json:"streaming,omitempty"`
	JSONMode         bool     `json:"json_mode,omitempty"`
	Reasoning        bool     `json:"reasoning,omitempty"`
	ReasoningEfforts []string `json:"reasoning_efforts,omitempty"`
	SafetyModes      []string `json:"safety_modes,omitempty"`

	Sizes     []string `json:"sizes,omitempty"`
	Qualities []string `json:"qualities,omitempty"`
	Styles    []string `json:"styles,omitempty"`
}

func languageEntry(m providers.LanguageModel) modelEntry {
	return modelEntry{
		ID:               m.ID,
		DisplayName:      m.DisplayName,
		Modality:         string(providers.ModalityLanguage),
		FunctionCalling:  m.FunctionCalling,
		Vision:           m.Vision,
		Streaming:        m.Streaming,
		JSONMode:         m.JSONMode,
		Reasoning:        m.Reasoning,
		ReasoningEfforts: m.ReasoningEfforts,
		SafetyModes:      m.SafetyModes,
	}
}

func imageEntry(m providers.ImageModel) modelEntry {
	return modelEntry{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Modality:    string(providers.ModalityImage),
		Sizes:       m.Sizes,
		Qualities:   m.Qualities,
		Styles:      m.Styles,
	}
}

func (s *server) handleListProviders(w http.ResponseWriter, _ *http.Request) {
	list := make([]providerSummary, 0, s.registry.Len())
	for _, d := range s.registry.All() {
		list = append(list, providerSummary{
			ID:                d.ID,
			DisplayName:       d.DisplayName,
			Wire:              string(d.Wire),
			AuthKind:          string(d.Auth.Kind),
			LanguageModels:    len(d.LanguageModels),
			ImageModels:       len(d.ImageModels),
			SetupInstructions: d.SetupInstructions,
			DocsURL:           d.DocsURL,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": list})
}

func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	desc, err := s.registry.Find(chi.URLParam(r, "providerID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "unknown_provider")
		return
	}

	modality := providers.Modality(r.URL.Query().Get("modality"))
	var list []modelEntry
	switch modality {
	case providers.ModalityLanguage:
		for _, m := range desc.LanguageModels {
			list = append(list, languageEntry(m))
		}
	case providers.ModalityImage:
		for _, m := range desc.ImageModels {
			list = append(list, imageEntry(m))
		}
	case "":
		for _, m := range desc.LanguageModels {
			list = append(list, languageEntry(m))
		}
		for _, m := range desc.ImageModels {
			list = append(list, imageEntry(m))
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid modality %q: want language or image", modality), "", "invalid_request")
		return
	}
	if list == nil {
		list = []modelEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider": desc.ID,
		"data":     list,
	})
}

// handleLiveModels asks the vendor itself which models the stored credential
// can see. Results come from the TTL cache; a cold miss performs one vendor
// round trip shared by concurrent callers.
func (s *server) handleLiveModels(w http.ResponseWriter, r *http.Request) {
	desc, err := s.registry.Find(chi.URLParam(r, "providerID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error(), "", "unknown_provider")
		return
	}
	if desc.Auth.Kind == providers.AuthSigV4 {
		writeError(w, http.StatusNotImplemented, "live model discovery is not supported for SigV4 providers", "", "not_implemented")
		return
	}
	if desc.ModelsPath == "" {
		writeError(w, http.StatusNotImplemented, "provider does not expose a model listing endpoint", "", "not_implemented")
		return
	}

	ctx := r.Context()
	cred, err := s.store.CredentialForProvider(ctx, desc.ID)
	if errors.Is(err, credentials.ErrCredentialNotFound) {
		writeError(w, http.StatusConflict, "no credential configured for provider "+desc.ID, "", "missing_credential")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "", "internal_error")
		return
	}

	ids, err := s.models.GetOrFetch(ctx, desc.ID, func(ctx context.Context) ([]string, error) {
		return s.fetchVendorModels(ctx, desc, cred)
	})
	if err != nil {
		logging.FromContext(ctx).Warn("live model discovery failed",
			"provider", desc.ID, "error", err)
		writeError(w, http.StatusBadGateway, "vendor model listing failed: "+err.Error(), "", "vendor_unreachable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"provider": desc.ID,
		"source":   "live",
		"data":     ids,
	})
}

// fetchVendorModels performs the actual vendor round trip for live discovery.
func (s *server) fetchVendorModels(ctx context.Context, desc providers.Descriptor, cred credentials.VendorCredential) ([]string, error) {
	secret, err := s.resolver.Resolve(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("resolve credential: %w", err)
	}
	baseURL := desc.BaseURL
	if cred.BaseURL != "" {
		baseURL = cred.BaseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("provider %s has no base URL configured", desc.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+desc.ModelsPath, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range desc.Auth.Headers(secret) {
		req.Header.Set(k, v)
	}

	resp, err := liveClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("vendor returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	ids := parseModelIDs(body)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no model IDs in vendor response")
	}
	return ids, nil
}

// parseModelIDs extracts model identifiers from a vendor list-models payload.
// OpenAI-compatible vendors use {"data":[{"id":...}]}; Gemini and Cohere use
// {"models":[{"name":...}]}, Gemini prefixing names with "models/".
func parseModelIDs(body []byte) []string {
	res := gjson.GetBytes(body, "data.#.id")
	if !res.Exists() || len(res.Array()) == 0 {
		res = gjson.GetBytes(body, "models.#.name")
	}
	var ids []string
	for _, m := range res.Array() {
		id := strings.TrimPrefix(m.String(), "models/")
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
