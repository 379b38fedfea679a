package providers

// Perplexity returns the catalog descriptor for the Perplexity Sonar API.
// Perplexity exposes no public list-models endpoint.
func Perplexity() Descriptor {
	return Descriptor{
		ID:                "perplexity",
		DisplayName:       "Perplexity",
		BaseURL:           "https://api.perplexity.ai",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		DocsURL:           "https://docs.perplexity.ai",
		SetupInstructions: "Generate an API key in the Perplexity account settings under **API**.",
		LanguageModels: []LanguageModel{
			{ID: "sonar", DisplayName: "Sonar", Streaming: true},
			{ID: "sonar-pro", DisplayName: "Sonar Pro", Streaming: true},
			{ID: "sonar-reasoning", DisplayName: "Sonar Reasoning", Streaming: true, Reasoning: true},
		},
	}
}
