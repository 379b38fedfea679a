package providers

// Mistral returns the catalog descriptor for the Mistral AI platform
// (OpenAI-compatible chat API).
func Mistral() Descriptor {
	return Descriptor{
		ID:          "mistral",
		DisplayName: "Mistral AI",
		BaseURL:     "https://api.mistral.ai/v1",
		Wire:        WireOpenAI,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:  "/models",
		DocsURL:     "https://docs.mistral.ai",
		SetupInstructions: "Create an API key on the Mistral platform under " +
			"**La Plateforme → API Keys**.",
		LanguageModels: []LanguageModel{
			{ID: "mistral-large-latest", DisplayName: "Mistral Large", FunctionCalling: true, Streaming: true, JSONMode: true},
			{ID: "mistral-medium-latest", DisplayName: "Mistral Medium", Streaming: true},
			{ID: "mistral-small-latest", DisplayName: "Mistral Small", FunctionCalling: true, Streaming: true},
			{ID: "open-mistral-7b", DisplayName: "Open Mistral 7B", Streaming: true},
		},
	}
}
