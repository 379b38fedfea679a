package aibridge

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/loomworks/ai-bridge/providers"
)

// languageTransport is the wire-format-specific half of a
// LanguageClient. Implementations are bound to one model and one proxy
// route at construction.
type languageTransport interface {
	complete(ctx context.Context, req Request) (*Response, error)
	stream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}

// imageTransport is the wire-format-specific half of an ImageClient.
type imageTransport interface {
	generate(ctx context.Context, req ImageRequest) (*ImageResponse, error)
}

// LanguageClient is a handle for text generation, bound to one
// provider, one model and one proxy route. It is safe for concurrent
// use.
type LanguageClient struct {
	provider  providers.Descriptor
	model     providers.LanguageModel
	route     string
	transport languageTransport
}

// Provider returns the catalog ID of the bound provider.
func (c *LanguageClient) Provider() string { return c.provider.ID }

// Model returns the ID of the bound model.
func (c *LanguageClient) Model() string { return c.model.ID }

// ProxyRoute returns the proxy base URL all calls of this client hit.
func (c *LanguageClient) ProxyRoute() string { return c.route }

// SupportsFunctionCalling reports the catalog flag for the bound
// model. The flag gates feature exposure in calling applications; the
// bridge does not block tool payloads when it is false, and a vendor
// may reject what its catalog entry claims to support.
func (c *LanguageClient) SupportsFunctionCalling() bool { return c.model.FunctionCalling }

// SupportsVision reports whether the bound model accepts image input.
func (c *LanguageClient) SupportsVision() bool { return c.model.Vision }

// SupportsStreaming reports whether CompleteStream works for the
// bound model.
func (c *LanguageClient) SupportsStreaming() bool { return c.model.Streaming }

// SupportsJSONMode reports whether the bound model honors JSONMode.
func (c *LanguageClient) SupportsJSONMode() bool { return c.model.JSONMode }

func (c *LanguageClient) checkRequest(req Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.JSONMode && !c.model.JSONMode {
		return fmt.Errorf("model %q does not support JSON mode", c.model.ID)
	}
	if req.ReasoningEffort != "" && !slices.Contains(c.model.ReasoningEfforts, req.ReasoningEffort) {
		return fmt.Errorf("model %q does not offer reasoning effort %q (available: %s)",
			c.model.ID, req.ReasoningEffort, strings.Join(c.model.ReasoningEfforts, ", "))
	}
	if req.SafetyMode != "" && !slices.Contains(c.model.SafetyModes, req.SafetyMode) {
		return fmt.Errorf("model %q does not offer safety mode %q (available: %s)",
			c.model.ID, req.SafetyMode, strings.Join(c.model.SafetyModes, ", "))
	}
	return nil
}

// Complete runs one generation call and waits for the full response.
func (c *LanguageClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	resp, err := c.transport.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Provider = c.provider.ID
	if resp.Model == "" {
		resp.Model = c.model.ID
	}
	return resp, nil
}

// CompleteStream runs one generation call and returns a channel of
// incremental chunks. The channel is closed when the stream ends; a
// chunk with a non-nil Error terminates it early.
func (c *LanguageClient) CompleteStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	if !c.model.Streaming {
		return nil, fmt.Errorf("model %q does not support streaming", c.model.ID)
	}
	return c.transport.stream(ctx, req)
}

// ImageClient is a handle for image generation, bound to one provider,
// one model and one proxy route. It is safe for concurrent use.
type ImageClient struct {
	provider  providers.Descriptor
	model     providers.ImageModel
	route     string
	transport imageTransport
}

// Provider returns the catalog ID of the bound provider.
func (c *ImageClient) Provider() string { return c.provider.ID }

// Model returns the ID of the bound model.
func (c *ImageClient) Model() string { return c.model.ID }

// ProxyRoute returns the proxy base URL all calls of this client hit.
func (c *ImageClient) ProxyRoute() string { return c.route }

// Sizes returns the sizes the bound model accepts.
func (c *ImageClient) Sizes() []string { return slices.Clone(c.model.Sizes) }

func (c *ImageClient) checkRequest(req ImageRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Size != "" && len(c.model.Sizes) > 0 && !slices.Contains(c.model.Sizes, req.Size) {
		return fmt.Errorf("model %q does not offer size %q (available: %s)",
			c.model.ID, req.Size, strings.Join(c.model.Sizes, ", "))
	}
	if req.Quality != "" && !slices.Contains(c.model.Qualities, req.Quality) {
		return fmt.Errorf("model %q does not offer quality %q (available: %s)",
			c.model.ID, req.Quality, strings.Join(c.model.Qualities, ", "))
	}
	if req.Style != "" && !slices.Contains(c.model.Styles, req.Style) {
		return fmt.Errorf("model %q does not offer style %q (available: %s)",
			c.model.ID, req.Style, strings.Join(c.model.Styles, ", "))
	}
	return nil
}

// Generate runs one image generation call and waits for the result.
func (c *ImageClient) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	if err := c.checkRequest(req); err != nil {
		return nil, err
	}
	resp, err := c.transport.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Provider = c.provider.ID
	resp.Model = c.model.ID
	return resp, nil
}

// headerTransport injects a fixed set of headers into every request.
// The bedrock transport uses it to carry the bridge token, since the
// AWS SDK owns the request construction.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for k, v := range t.headers {
		clone.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
