package providers

// Fireworks returns the catalog descriptor for the Fireworks AI inference API.
func Fireworks() Descriptor {
	return Descriptor{
		ID:                "fireworks",
		DisplayName:       "Fireworks AI",
		BaseURL:           "https://api.fireworks.ai/inference/v1",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:        "/models",
		DocsURL:           "https://docs.fireworks.ai",
		SetupInstructions: "Create an API key in the Fireworks console under **API Keys**.",
		LanguageModels: []LanguageModel{
			{ID: "accounts/fireworks/models/llama-v3p1-70b-instruct", DisplayName: "Llama 3.1 70B Instruct", Streaming: true},
			{ID: "accounts/fireworks/models/llama-v3p1-8b-instruct", DisplayName: "Llama 3.1 8B Instruct", Streaming: true},
			{ID: "accounts/fireworks/models/firefunction-v2", DisplayName: "FireFunction V2", FunctionCalling: true, Streaming: true},
		},
	}
}
