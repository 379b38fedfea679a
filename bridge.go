// Package aibridge builds provider-bound clients for AI model
// invocations that route every request through a bridge proxy.
//
// The package couples three pieces: a static catalog of provider
// descriptors (the providers package), a client factory that validates
// a provider/model pair against the catalog before any network traffic
// happens, and a resolver that reports the advanced generation options
// a given model supports.
//
// Clients never talk to a vendor directly. They are constructed with
// the address of a bridge proxy and a short-lived request token; the
// token travels in the provider's native credential position and the
// proxy swaps it for the real vendor credential in flight.
package aibridge

import (
	"fmt"

	"github.com/loomworks/ai-bridge/providers"
)

// Bridge couples the provider catalog with the client factory and the
// advanced-option resolver. It is immutable after construction and
// safe for concurrent use.
type Bridge struct {
	registry *providers.Registry
}

// Option customizes a Bridge under construction.
type Option func(*bridgeOptions)

type bridgeOptions struct {
	descriptors []providers.Descriptor
	catalogFile string
}

// WithDescriptors replaces the built-in catalog with an explicit set
// of descriptors. Useful in tests and for private deployments that
// expose only a subset of providers.
func WithDescriptors(descs ...providers.Descriptor) Option {
	return func(o *bridgeOptions) { o.descriptors = descs }
}

// WithCatalogFile merges a catalog overlay file over the built-in
// descriptors. See LoadCatalogFile for the accepted format.
func WithCatalogFile(path string) Option {
	return func(o *bridgeOptions) { o.catalogFile = path }
}

// New builds a Bridge. With no options it carries the built-in catalog.
func New(opts ...Option) (*Bridge, error) {
	var o bridgeOptions
	for _, opt := range opts {
		opt(&o)
	}

	descs := o.descriptors
	if descs == nil {
		descs = providers.Builtin()
	}
	if o.catalogFile != "" {
		merged, err := LoadCatalogFile(o.catalogFile, descs)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog overlay: %w", err)
		}
		descs = merged
	}

	reg, err := providers.NewRegistry(descs...)
	if err != nil {
		return nil, err
	}
	return &Bridge{registry: reg}, nil
}

// Default returns a Bridge over the built-in catalog.
func Default() *Bridge {
	return &Bridge{registry: providers.Default()}
}

// Registry returns the underlying provider catalog.
func (b *Bridge) Registry() *providers.Registry { return b.registry }

// Find looks up a provider descriptor by ID. The lookup is
// case-insensitive. It fails with ErrProviderNotFound for IDs
// absent from the catalog.
func (b *Bridge) Find(providerID string) (providers.Descriptor, error) {
	return b.registry.Find(providerID)
}

// Providers returns every descriptor in catalog order.
func (b *Bridge) Providers() []providers.Descriptor { return b.registry.All() }

// LanguageModels lists the language models of one provider. A provider
// without language models yields an empty slice, not an error.
func (b *Bridge) LanguageModels(providerID string) ([]providers.LanguageModel, error) {
	return b.registry.LanguageModels(providerID)
}

// ImageModels lists the image models of one provider. A provider
// without image models yields an empty slice, not an error.
func (b *Bridge) ImageModels(providerID string) ([]providers.ImageModel, error) {
	return b.registry.ImageModels(providerID)
}
