package providers

// AI21 returns the catalog descriptor for the AI21 Studio API
// (OpenAI-compatible Jamba chat endpoint).
func AI21() Descriptor {
	return Descriptor{
		ID:                "ai21",
		DisplayName:       "AI21 Labs",
		BaseURL:           "https://api.ai21.com/studio/v1",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		DocsURL:           "https://docs.ai21.com",
		SetupInstructions: "Create an API key in AI21 Studio under **Account → API Key**.",
		LanguageModels: []LanguageModel{
			{ID: "jamba-1.5-large", DisplayName: "Jamba 1.5 Large", FunctionCalling: true, Streaming: true},
			{ID: "jamba-1.5-mini", DisplayName: "Jamba 1.5 Mini", Streaming: true},
		},
	}
}
