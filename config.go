package aibridge

import "github.com/loomworks/ai-bridge/providers"

// CatalogFile is the on-disk shape of a catalog overlay. Each listed
// descriptor either replaces the built-in descriptor with the same ID
// or adds a new provider. Built-ins not named by the overlay are kept
// as they are; there is no way to remove one short of replacing the
// whole catalog with WithDescriptors.
type CatalogFile struct {
	Providers []providers.Descriptor `json:"providers" yaml:"providers"`
}
