package providers

// Anthropic returns the catalog descriptor for the Anthropic messages API.
// Anthropic offers no image generation models.
func Anthropic() Descriptor {
	return Descriptor{
		ID:          "anthropic",
		DisplayName: "Anthropic",
		BaseURL:     "https://api.anthropic.com",
		Wire:        WireAnthropic,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "x-api-key"},
		ModelsPath:  "/v1/models",
		DocsURL:     "https://docs.anthropic.com",
		SetupInstructions: "Generate a key in the Anthropic console under **API Keys**. " +
			"The key is sent in the `x-api-key` header, no Bearer prefix.",
		LanguageModels: []LanguageModel{
			{ID: "claude-3-5-sonnet-20241022", DisplayName: "Claude 3.5 Sonnet", FunctionCalling: true, Vision: true, Streaming: true},
			{ID: "claude-3-5-haiku-20241022", DisplayName: "Claude 3.5 Haiku", FunctionCalling: true, Streaming: true},
			{ID: "claude-3-opus-20240229", DisplayName: "Claude 3 Opus", FunctionCalling: true, Vision: true, Streaming: true},
			{ID: "claude-3-haiku-20240307", DisplayName: "Claude 3 Haiku", FunctionCalling: true, Streaming: true},
		},
	}
}
