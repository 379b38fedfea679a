// Package providers holds the static catalog of AI providers the bridge can
// route to. Each provider is described by a Descriptor: its identity, vendor
// base URL, auth scheme, and the language/image models it serves. Descriptors
// are plain data; the actual HTTP clients live in the root aibridge package
// and are constructed from this catalog.
package providers

import "strings"

// Modality is the kind of generation a model performs.
type Modality string

const (
	ModalityLanguage Modality = "language"
	ModalityImage    Modality = "image"
)

// WireFormat selects the request/response dialect a provider speaks. The
// client factory dispatches on it when building transports.
type WireFormat string

const (
	// WireOpenAI is the OpenAI-compatible chat/images API, also spoken by
	// Azure OpenAI, Mistral, Groq, DeepSeek, Together, and Perplexity.
	WireOpenAI WireFormat = "openai"
	// WireAnthropic is the Anthropic messages API.
	WireAnthropic WireFormat = "anthropic"
	// WireGemini is the Google generative language API.
	WireGemini WireFormat = "gemini"
	// WireCohere is the Cohere chat API.
	WireCohere WireFormat = "cohere"
	// WireReplicate is the Replicate predictions API (submit then poll).
	WireReplicate WireFormat = "replicate"
	// WireBedrock is the AWS Bedrock runtime (SigV4-signed InvokeModel).
	WireBedrock WireFormat = "bedrock"
)

// AuthKind selects how a credential is attached to an outbound request.
type AuthKind string

const (
	// AuthHeader means the credential travels in a single HTTP header,
	// optionally prefixed (e.g. "Bearer ").
	AuthHeader AuthKind = "header"
	// AuthSigV4 means AWS Signature Version 4 request signing; no
	// bearer-style header exists, the forwarder signs with stored AWS
	// credentials.
	AuthSigV4 AuthKind = "sigv4"
)

// AuthScheme describes the header shape a provider expects its credential in.
// The same shape carries the short-lived bridge token on the client→proxy leg
// and the real vendor credential on the proxy→vendor leg.
type AuthScheme struct {
	Kind   AuthKind `json:"kind" yaml:"kind"`
	Header string   `json:"header,omitempty" yaml:"header,omitempty"`
	Prefix string   `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Headers formats secret per the scheme. Empty for SigV4 providers.
func (a AuthScheme) Headers(secret string) map[string]string {
	if a.Kind != AuthHeader || a.Header == "" {
		return map[string]string{}
	}
	return map[string]string{a.Header: a.Prefix + secret}
}

// Extract pulls the raw credential value out of a header previously formatted
// by Headers, trimming the scheme prefix. The second return is false when the
// header does not match the scheme shape.
func (a AuthScheme) Extract(headerValue string) (string, bool) {
	if a.Kind != AuthHeader || headerValue == "" {
		return "", false
	}
	if a.Prefix == "" {
		return headerValue, true
	}
	if !strings.HasPrefix(headerValue, a.Prefix) {
		return "", false
	}
	return strings.TrimPrefix(headerValue, a.Prefix), true
}

// LanguageModel describes one text-generation model offered by a provider.
type LanguageModel struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Capability flags used for validation and UI gating.
	FunctionCalling bool `json:"function_calling,omitempty" yaml:"function_calling,omitempty"`
	Vision          bool `json:"vision,omitempty" yaml:"vision,omitempty"`
	Streaming       bool `json:"streaming,omitempty" yaml:"streaming,omitempty"`
	JSONMode        bool `json:"json_mode,omitempty" yaml:"json_mode,omitempty"`
	Reasoning       bool `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`

	// Advanced option variants. Empty slices mean the model exposes no such
	// knob; the resolver turns non-empty ones into tagged options.
	ReasoningEfforts []string `json:"reasoning_efforts,omitempty" yaml:"reasoning_efforts,omitempty"`
	SafetyModes      []string `json:"safety_modes,omitempty" yaml:"safety_modes,omitempty"`
}

// ImageModel describes one image-generation model offered by a provider.
type ImageModel struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`

	Sizes     []string `json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Qualities []string `json:"qualities,omitempty" yaml:"qualities,omitempty"`
	Styles    []string `json:"styles,omitempty" yaml:"styles,omitempty"`
}

// Descriptor is the static catalog entry for one provider. Descriptors are
// value types: hand out copies freely, never mutate after registry build.
type Descriptor struct {
	ID          string     `json:"id" yaml:"id"`
	DisplayName string     `json:"display_name" yaml:"display_name"`
	BaseURL     string     `json:"base_url" yaml:"base_url"`
	Wire        WireFormat `json:"wire" yaml:"wire"`
	Auth        AuthScheme `json:"auth" yaml:"auth"`

	LanguageModels []LanguageModel `json:"language_models,omitempty" yaml:"language_models,omitempty"`
	ImageModels    []ImageModel    `json:"image_models,omitempty" yaml:"image_models,omitempty"`

	// SetupInstructions is short human-readable guidance (markdown) on
	// obtaining and configuring a credential for this provider.
	SetupInstructions string `json:"setup_instructions,omitempty" yaml:"setup_instructions,omitempty"`
	DocsURL           string `json:"docs_url,omitempty" yaml:"docs_url,omitempty"`

	// ModelsPath is the vendor's list-models endpoint path, used by live
	// discovery and credential tests. Empty when the vendor has none.
	ModelsPath string `json:"models_path,omitempty" yaml:"models_path,omitempty"`
}

// FindLanguageModel looks up a language model by ID.
func (d Descriptor) FindLanguageModel(id string) (LanguageModel, bool) {
	for _, m := range d.LanguageModels {
		if m.ID == id {
			return m, true
		}
	}
	return LanguageModel{}, false
}

// FindImageModel looks up an image model by ID.
func (d Descriptor) FindImageModel(id string) (ImageModel, bool) {
	for _, m := range d.ImageModels {
		if m.ID == id {
			return m, true
		}
	}
	return ImageModel{}, false
}

// HasModality reports whether the provider offers any model of the modality.
func (d Descriptor) HasModality(m Modality) bool {
	switch m {
	case ModalityLanguage:
		return len(d.LanguageModels) > 0
	case ModalityImage:
		return len(d.ImageModels) > 0
	default:
		return false
	}
}

// ModelModality reports which modality a model ID belongs to under this
// provider. The second return is false when the ID is in neither list.
func (d Descriptor) ModelModality(modelID string) (Modality, bool) {
	if _, ok := d.FindLanguageModel(modelID); ok {
		return ModalityLanguage, true
	}
	if _, ok := d.FindImageModel(modelID); ok {
		return ModalityImage, true
	}
	return "", false
}

// ModelCount returns the total number of models across both modalities.
func (d Descriptor) ModelCount() int {
	return len(d.LanguageModels) + len(d.ImageModels)
}

// NormalizeID canonicalizes a caller-supplied provider identifier the way
// the catalog stores them: lower-cased, surrounding space trimmed.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
