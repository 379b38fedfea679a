package aibridge

import (
	"reflect"
	"testing"
)

func optionByKind(opts []AdvancedOption, kind OptionKind) (AdvancedOption, bool) {
	for _, o := range opts {
		if o.Kind == kind {
			return o, true
		}
	}
	return AdvancedOption{}, false
}

func TestAdvancedOptions_DallE3(t *testing.T) {
	bridge := Default()
	opts := bridge.AdvancedOptions("openai", "dall-e-3")

	if len(opts) != 3 {
		t.Fatalf("AdvancedOptions(openai, dall-e-3) = %d options, want 3", len(opts))
	}

	quality, ok := optionByKind(opts, OptionImageQuality)
	if !ok {
		t.Fatal("no quality option for dall-e-3")
	}
	if want := []string{"standard", "hd"}; !reflect.DeepEqual(quality.Values, want) {
		t.Errorf("quality values = %v, want %v", quality.Values, want)
	}

	style, ok := optionByKind(opts, OptionImageStyle)
	if !ok {
		t.Fatal("no style option for dall-e-3")
	}
	if want := []string{"vivid", "natural"}; !reflect.DeepEqual(style.Values, want) {
		t.Errorf("style values = %v, want %v", style.Values, want)
	}

	if _, ok := optionByKind(opts, OptionImageSize); !ok {
		t.Error("no size option for dall-e-3")
	}
}

func TestAdvancedOptions_GPTImage1Quality(t *testing.T) {
	bridge := Default()
	opts := bridge.AdvancedOptions("openai", "gpt-image-1")

	quality, ok := optionByKind(opts, OptionImageQuality)
	if !ok {
		t.Fatal("no quality option for gpt-image-1")
	}
	if want := []string{"low", "medium", "high"}; !reflect.DeepEqual(quality.Values, want) {
		t.Errorf("quality values = %v, want %v", quality.Values, want)
	}
	if _, ok := optionByKind(opts, OptionImageStyle); ok {
		t.Error("gpt-image-1 reports a style option, want none")
	}
}

func TestAdvancedOptions_ReasoningEffort(t *testing.T) {
	bridge := Default()
	opts := bridge.AdvancedOptions("openai", "o3-mini")

	effort, ok := optionByKind(opts, OptionReasoningEffort)
	if !ok {
		t.Fatal("no reasoning effort option for o3-mini")
	}
	if want := []string{"low", "medium", "high"}; !reflect.DeepEqual(effort.Values, want) {
		t.Errorf("reasoning effort values = %v, want %v", effort.Values, want)
	}
}

func TestAdvancedOptions_CohereSafetyMode(t *testing.T) {
	bridge := Default()
	opts := bridge.AdvancedOptions("cohere", "command-r")

	mode, ok := optionByKind(opts, OptionSafetyMode)
	if !ok {
		t.Fatal("no safety mode option for command-r")
	}
	if len(mode.Values) == 0 {
		t.Error("safety mode option has no values")
	}
}

func TestAdvancedOptions_PlainModelHasNone(t *testing.T) {
	bridge := Default()
	if opts := bridge.AdvancedOptions("openai", "gpt-4o"); len(opts) != 0 {
		t.Errorf("AdvancedOptions(openai, gpt-4o) = %v, want empty", opts)
	}
}

// Unknown combinations yield an empty set, never an error.
func TestAdvancedOptions_UnknownCombinations(t *testing.T) {
	bridge := Default()
	combos := []struct{ provider, model string }{
		{"nonexistent", "gpt-4o"},
		{"openai", "nonexistent"},
		{"", ""},
	}
	for _, c := range combos {
		if opts := bridge.AdvancedOptions(c.provider, c.model); len(opts) != 0 {
			t.Errorf("AdvancedOptions(%q, %q) = %v, want empty", c.provider, c.model, opts)
		}
	}
}

// Mutating a returned option must not leak into the catalog.
func TestAdvancedOptions_CopiesValues(t *testing.T) {
	bridge := Default()
	opts := bridge.AdvancedOptions("openai", "o3-mini")
	if len(opts) == 0 {
		t.Fatal("no options for o3-mini")
	}
	opts[0].Values[0] = "mutated"

	fresh := bridge.AdvancedOptions("openai", "o3-mini")
	if fresh[0].Values[0] == "mutated" {
		t.Error("mutation of returned option values leaked into the catalog")
	}
}
