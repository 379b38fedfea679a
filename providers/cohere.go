package providers

// Cohere returns the catalog descriptor for the Cohere chat API.
func Cohere() Descriptor {
	return Descriptor{
		ID:                "cohere",
		DisplayName:       "Cohere",
		BaseURL:           "https://api.cohere.com",
		Wire:              WireCohere,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:        "/v1/models",
		DocsURL:           "https://docs.cohere.com",
		SetupInstructions: "Create an API key in the Cohere dashboard under **API Keys**.",
		LanguageModels: []LanguageModel{
			{ID: "command-r-plus", DisplayName: "Command R+", FunctionCalling: true, Streaming: true, JSONMode: true,
				SafetyModes: []string{"CONTEXTUAL", "STRICT", "OFF"}},
			{ID: "command-r", DisplayName: "Command R", FunctionCalling: true, Streaming: true,
				SafetyModes: []string{"CONTEXTUAL", "STRICT", "OFF"}},
			{ID: "command", DisplayName: "Command", Streaming: true},
		},
	}
}
