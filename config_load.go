package aibridge

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/loomworks/ai-bridge/providers"
)

//go:embed catalog_schema.json
var catalogSchemaJSON string

var catalogSchema = jsonschema.MustCompileString("catalog_schema.json", catalogSchemaJSON)

// LoadCatalogFile reads a catalog overlay from path and merges it over
// base. Supported formats: JSON (.json), YAML (.yaml, .yml). The raw
// document is validated against the embedded catalog schema before
// decoding, so unknown fields and malformed entries fail loudly
// instead of being dropped. Overlay entries replace base descriptors
// with the same ID and append otherwise, preserving base order.
func LoadCatalogFile(path string, base []providers.Descriptor) ([]providers.Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	var doc any
	var overlay CatalogFile
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing YAML catalog: %w", err)
		}
		if doc, err = jsonRoundTrip(doc); err != nil {
			return nil, fmt.Errorf("converting YAML catalog: %w", err)
		}
		if err := validateCatalog(path, doc); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parsing YAML catalog: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing JSON catalog: %w", err)
		}
		if err := validateCatalog(path, doc); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parsing JSON catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file extension %q: use .json, .yaml, or .yml", ext)
	}

	return MergeCatalog(base, overlay.Providers)
}

func validateCatalog(path string, doc any) error {
	if err := catalogSchema.Validate(doc); err != nil {
		return fmt.Errorf("catalog file %s failed schema validation: %w", path, err)
	}
	return nil
}

// jsonRoundTrip re-types a YAML-decoded value as its encoding/json
// equivalent (float64 numbers, map[string]any maps) so the schema sees
// the same document either way.
func jsonRoundTrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeCatalog applies overlay descriptors to base. An overlay entry
// with a base ID replaces that entry in place; new IDs append in
// overlay order. Duplicate IDs within the overlay fail the merge.
func MergeCatalog(base, overlay []providers.Descriptor) ([]providers.Descriptor, error) {
	merged := make([]providers.Descriptor, len(base))
	copy(merged, base)

	index := make(map[string]int, len(merged))
	for i, d := range merged {
		index[providers.NormalizeID(d.ID)] = i
	}

	seen := make(map[string]bool, len(overlay))
	for _, d := range overlay {
		id := providers.NormalizeID(d.ID)
		if seen[id] {
			return nil, fmt.Errorf("duplicate provider %q in overlay", id)
		}
		seen[id] = true

		if i, ok := index[id]; ok {
			merged[i] = d
			continue
		}
		index[id] = len(merged)
		merged = append(merged, d)
	}
	return merged, nil
}
