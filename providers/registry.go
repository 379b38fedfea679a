package providers

import "fmt"

// Registry is the immutable provider catalog. It is populated once by
// NewRegistry and never mutated afterwards, so lookups are safe from any
// number of goroutines without locking.
type Registry struct {
	order []string
	byID  map[string]Descriptor
}

// NewRegistry builds a registry from descriptors. Descriptor IDs are
// normalized and must be unique; a duplicate is a construction error, not a
// silent overwrite.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(descs)),
		byID:  make(map[string]Descriptor, len(descs)),
	}
	for _, d := range descs {
		d.ID = NormalizeID(d.ID)
		if d.ID == "" {
			return nil, fmt.Errorf("descriptor %q: empty provider id", d.DisplayName)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate provider id %q", d.ID)
		}
		if err := validateDescriptor(d); err != nil {
			return nil, fmt.Errorf("provider %q: %w", d.ID, err)
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

func validateDescriptor(d Descriptor) error {
	switch d.Auth.Kind {
	case AuthHeader:
		if d.Auth.Header == "" {
			return fmt.Errorf("header auth scheme requires a header name")
		}
	case AuthSigV4:
	default:
		return fmt.Errorf("unknown auth kind %q", d.Auth.Kind)
	}
	seen := make(map[string]struct{}, d.ModelCount())
	for _, m := range d.LanguageModels {
		if m.ID == "" {
			return fmt.Errorf("language model with empty id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	for _, m := range d.ImageModels {
		if m.ID == "" {
			return fmt.Errorf("image model with empty id")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// Find returns the descriptor for a provider id. The error wraps
// ErrProviderNotFound when the id is absent from the catalog.
func (r *Registry) Find(id string) (Descriptor, error) {
	d, ok := r.byID[NormalizeID(id)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrProviderNotFound, id)
	}
	return d, nil
}

// LanguageModels returns the provider's language model descriptors. An empty
// slice means the provider offers none of that modality; only an unknown
// provider id is an error.
func (r *Registry) LanguageModels(id string) ([]LanguageModel, error) {
	d, err := r.Find(id)
	if err != nil {
		return nil, err
	}
	out := make([]LanguageModel, len(d.LanguageModels))
	copy(out, d.LanguageModels)
	return out, nil
}

// ImageModels returns the provider's image model descriptors. Same contract
// as LanguageModels.
func (r *Registry) ImageModels(id string) ([]ImageModel, error) {
	d, err := r.Find(id)
	if err != nil {
		return nil, err
	}
	out := make([]ImageModel, len(d.ImageModels))
	copy(out, d.ImageModels)
	return out, nil
}

// ResolveModel reports which modality modelID belongs to under the provider.
// Errors wrap ErrProviderNotFound or ErrModelNotSupported.
func (r *Registry) ResolveModel(providerID, modelID string) (Modality, error) {
	d, err := r.Find(providerID)
	if err != nil {
		return "", err
	}
	mod, ok := d.ModelModality(modelID)
	if !ok {
		return "", fmt.Errorf("%w: %q (provider %q)", ErrModelNotSupported, modelID, d.ID)
	}
	return mod, nil
}

// IDs returns provider ids in catalog order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every descriptor in catalog order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Len returns the number of providers in the catalog.
func (r *Registry) Len() int {
	return len(r.order)
}
