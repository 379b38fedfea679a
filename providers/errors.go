package providers

import "errors"

// Validation failures raised when resolving providers and models against the
// catalog. All are local, synchronous, and non-retryable: callers get them at
// client-construction time and never from the generation call itself.
var (
	// ErrProviderNotFound is returned when the provider identifier is not in
	// the catalog.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrModelNotSupported is returned when the model identifier is in neither
	// the provider's language nor image model list.
	ErrModelNotSupported = errors.New("model not supported by provider")
	// ErrModalityMismatch is returned when the model exists but its modality
	// disagrees with the requested use (e.g. image client for a language model).
	ErrModalityMismatch = errors.New("model modality does not match requested use")
	// ErrCapabilityNotSupported is returned when the provider offers no models
	// of the requested modality at all, independent of any model id.
	ErrCapabilityNotSupported = errors.New("provider does not support requested capability")
)
