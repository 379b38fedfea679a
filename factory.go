package aibridge

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/loomworks/ai-bridge/providers"
)

// ProxyPathPrefix is the route under which the bridge proxy mounts the
// per-provider forwarder. Clients append the provider ID and whatever
// vendor-relative path their wire format uses.
const ProxyPathPrefix = "/v1/ai-providers/proxy"

// ProxyRoute returns the base URL a client uses to reach providerID
// through the proxy at proxyBaseURL. The result has no trailing slash.
func ProxyRoute(proxyBaseURL, providerID string) string {
	return strings.TrimRight(proxyBaseURL, "/") + ProxyPathPrefix + "/" + providerID
}

// ClientConfig carries the inputs every client construction needs.
type ClientConfig struct {
	// Provider is the catalog ID of the target provider.
	Provider string
	// Model is the model ID the client will be bound to.
	Model string
	// ProxyBaseURL is the address of the bridge proxy. All vendor
	// traffic goes through it; clients never contact a vendor directly.
	ProxyBaseURL string
	// Token is a short-lived bridge request token. It is sent in the
	// provider's native credential position and swapped for the real
	// vendor credential by the proxy.
	Token string
	// HTTPClient overrides the transport used for proxy calls.
	HTTPClient *http.Client
}

func (c *ClientConfig) checkEndpoint() error {
	if c.ProxyBaseURL == "" {
		return fmt.Errorf("proxy base URL is required")
	}
	u, err := url.Parse(c.ProxyBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid proxy base URL %q", c.ProxyBaseURL)
	}
	if c.Token == "" {
		return fmt.Errorf("auth token is required")
	}
	return nil
}

func (c *ClientConfig) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{}
}

// LanguageClient builds a client bound to one language model of one
// provider. Construction is local and synchronous: the provider and
// model are validated against the catalog, no network traffic happens,
// and a returned error will keep recurring until the inputs or the
// catalog change.
//
// Failure modes, all detectable with errors.Is: ErrProviderNotFound
// for an unknown provider, ErrCapabilityNotSupported when the provider
// has no language models at all, ErrModalityMismatch when the model
// exists but generates images, and ErrModelNotSupported when the
// provider does not list the model.
func (b *Bridge) LanguageClient(cfg ClientConfig) (*LanguageClient, error) {
	if err := cfg.checkEndpoint(); err != nil {
		return nil, err
	}
	desc, err := b.registry.Find(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if len(desc.LanguageModels) == 0 {
		return nil, fmt.Errorf("%w: provider %q offers no language models", ErrCapabilityNotSupported, desc.ID)
	}
	model, ok := desc.FindLanguageModel(cfg.Model)
	if !ok {
		if _, isImage := desc.FindImageModel(cfg.Model); isImage {
			return nil, fmt.Errorf("%w: model %q of provider %q generates images, not text", ErrModalityMismatch, cfg.Model, desc.ID)
		}
		return nil, fmt.Errorf("%w: provider %q does not offer model %q", ErrModelNotSupported, desc.ID, cfg.Model)
	}

	route := ProxyRoute(cfg.ProxyBaseURL, desc.ID)
	hc := cfg.httpClient()

	var transport languageTransport
	switch desc.Wire {
	case providers.WireOpenAI:
		transport = newOpenAIChat(desc, model.ID, route, cfg.Token, hc)
	case providers.WireAnthropic:
		transport = newAnthropicChat(desc, model.ID, route, cfg.Token, hc)
	case providers.WireGemini:
		transport = newGeminiChat(desc, model.ID, route, cfg.Token, hc)
	case providers.WireCohere:
		transport = newCohereChat(desc, model.ID, route, cfg.Token, hc)
	case providers.WireReplicate:
		transport = newReplicateChat(desc, model.ID, route, cfg.Token, hc)
	case providers.WireBedrock:
		transport = newBedrockChat(model.ID, route, cfg.Token, hc)
	default:
		return nil, fmt.Errorf("no language transport for wire format %q", desc.Wire)
	}

	return &LanguageClient{
		provider:  desc,
		model:     model,
		route:     route,
		transport: transport,
	}, nil
}

// ImageClient builds a client bound to one image model of one
// provider. Validation mirrors LanguageClient with the modalities
// swapped: a provider without image models fails with
// ErrCapabilityNotSupported for every model ID, and asking for a
// language model fails with ErrModalityMismatch.
func (b *Bridge) ImageClient(cfg ClientConfig) (*ImageClient, error) {
	if err := cfg.checkEndpoint(); err != nil {
		return nil, err
	}
	desc, err := b.registry.Find(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if len(desc.ImageModels) == 0 {
		return nil, fmt.Errorf("%w: provider %q offers no image models", ErrCapabilityNotSupported, desc.ID)
	}
	model, ok := desc.FindImageModel(cfg.Model)
	if !ok {
		if _, isLanguage := desc.FindLanguageModel(cfg.Model); isLanguage {
			return nil, fmt.Errorf("%w: model %q of provider %q generates text, not images", ErrModalityMismatch, cfg.Model, desc.ID)
		}
		return nil, fmt.Errorf("%w: provider %q does not offer model %q", ErrModelNotSupported, desc.ID, cfg.Model)
	}

	route := ProxyRoute(cfg.ProxyBaseURL, desc.ID)
	hc := cfg.httpClient()

	var transport imageTransport
	switch desc.Wire {
	case providers.WireOpenAI:
		transport = newOpenAIImages(desc, model.ID, route, cfg.Token, hc)
	case providers.WireReplicate:
		transport = newReplicateImages(desc, model.ID, route, cfg.Token, hc)
	default:
		return nil, fmt.Errorf("no image transport for wire format %q", desc.Wire)
	}

	return &ImageClient{
		provider:  desc,
		model:     model,
		route:     route,
		transport: transport,
	}, nil
}

// NewLanguageClient builds a language client over the built-in catalog.
func NewLanguageClient(cfg ClientConfig) (*LanguageClient, error) {
	return Default().LanguageClient(cfg)
}

// NewImageClient builds an image client over the built-in catalog.
func NewImageClient(cfg ClientConfig) (*ImageClient, error) {
	return Default().ImageClient(cfg)
}
