package aibridge

import "github.com/loomworks/ai-bridge/providers"

// Construction-time errors returned by the client factory. All four
// are detectable with errors.Is and none is retryable: a failed
// construction will keep failing until the catalog or the inputs
// change.
var (
	// ErrProviderNotFound reports a provider ID absent from the catalog.
	ErrProviderNotFound = providers.ErrProviderNotFound

	// ErrModelNotSupported reports a model ID the provider's catalog
	// entry does not list under any modality.
	ErrModelNotSupported = providers.ErrModelNotSupported

	// ErrModalityMismatch reports a model that exists but under the
	// other modality than the requested client kind.
	ErrModalityMismatch = providers.ErrModalityMismatch

	// ErrCapabilityNotSupported reports a provider with no models at
	// all for the requested modality.
	ErrCapabilityNotSupported = providers.ErrCapabilityNotSupported
)
