package aibridge

import (
	"slices"

	"github.com/loomworks/ai-bridge/providers"
)

// OptionKind identifies one advanced generation option. The set is
// closed: callers can switch over it exhaustively instead of probing
// an open property bag.
type OptionKind string

const (
	// OptionReasoningEffort selects a thinking budget on reasoning
	// models. Carried by Request.ReasoningEffort.
	OptionReasoningEffort OptionKind = "reasoning_effort"
	// OptionSafetyMode selects a content-safety preset. Carried by
	// Request.SafetyMode.
	OptionSafetyMode OptionKind = "safety_mode"
	// OptionImageSize selects the output resolution. Carried by
	// ImageRequest.Size.
	OptionImageSize OptionKind = "size"
	// OptionImageQuality selects a rendering quality tier. Carried by
	// ImageRequest.Quality.
	OptionImageQuality OptionKind = "quality"
	// OptionImageStyle selects a rendering style. Carried by
	// ImageRequest.Style.
	OptionImageStyle OptionKind = "style"
)

// AdvancedOption describes one optional parameter a specific model
// accepts beyond the common request fields, together with the values
// it takes.
type AdvancedOption struct {
	Kind   OptionKind `json:"kind"`
	Values []string   `json:"values"`
}

// AdvancedOptions resolves the advanced options of one (provider,
// model) pair. It is a pure function of catalog state. Unrecognized
// pairs yield an empty slice, never an error: options are additive
// and a caller that knows nothing about a model simply gets nothing
// to render.
func (b *Bridge) AdvancedOptions(providerID, modelID string) []AdvancedOption {
	desc, err := b.registry.Find(providerID)
	if err != nil {
		return nil
	}
	if m, ok := desc.FindLanguageModel(modelID); ok {
		return languageOptions(m)
	}
	if m, ok := desc.FindImageModel(modelID); ok {
		return imageOptions(m)
	}
	return nil
}

func languageOptions(m providers.LanguageModel) []AdvancedOption {
	var opts []AdvancedOption
	if len(m.ReasoningEfforts) > 0 {
		opts = append(opts, AdvancedOption{
			Kind:   OptionReasoningEffort,
			Values: slices.Clone(m.ReasoningEfforts),
		})
	}
	if len(m.SafetyModes) > 0 {
		opts = append(opts, AdvancedOption{
			Kind:   OptionSafetyMode,
			Values: slices.Clone(m.SafetyModes),
		})
	}
	return opts
}

func imageOptions(m providers.ImageModel) []AdvancedOption {
	var opts []AdvancedOption
	if len(m.Sizes) > 0 {
		opts = append(opts, AdvancedOption{
			Kind:   OptionImageSize,
			Values: slices.Clone(m.Sizes),
		})
	}
	if len(m.Qualities) > 0 {
		opts = append(opts, AdvancedOption{
			Kind:   OptionImageQuality,
			Values: slices.Clone(m.Qualities),
		})
	}
	if len(m.Styles) > 0 {
		opts = append(opts, AdvancedOption{
			Kind:   OptionImageStyle,
			Values: slices.Clone(m.Styles),
		})
	}
	return opts
}
