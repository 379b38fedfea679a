package providers

// DeepSeek returns the catalog descriptor for the DeepSeek platform API.
func DeepSeek() Descriptor {
	return Descriptor{
		ID:                "deepseek",
		DisplayName:       "DeepSeek",
		BaseURL:           "https://api.deepseek.com",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:        "/models",
		DocsURL:           "https://api-docs.deepseek.com",
		SetupInstructions: "Create an API key on the DeepSeek open platform under **API Keys**.",
		LanguageModels: []LanguageModel{
			{ID: "deepseek-chat", DisplayName: "DeepSeek Chat", FunctionCalling: true, Streaming: true, JSONMode: true},
			{ID: "deepseek-reasoner", DisplayName: "DeepSeek Reasoner", Streaming: true, Reasoning: true},
		},
	}
}
