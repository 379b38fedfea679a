package providers

// Groq returns the catalog descriptor for the Groq cloud API
// (OpenAI-compatible, served from /openai/v1).
func Groq() Descriptor {
	return Descriptor{
		ID:                "groq",
		DisplayName:       "Groq",
		BaseURL:           "https://api.groq.com/openai/v1",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:        "/models",
		DocsURL:           "https://console.groq.com/docs",
		SetupInstructions: "Create an API key in the Groq console under **API Keys**.",
		LanguageModels: []LanguageModel{
			{ID: "llama-3.3-70b-versatile", DisplayName: "Llama 3.3 70B Versatile", FunctionCalling: true, Streaming: true, JSONMode: true},
			{ID: "llama-3.1-8b-instant", DisplayName: "Llama 3.1 8B Instant", FunctionCalling: true, Streaming: true},
			{ID: "mixtral-8x7b-32768", DisplayName: "Mixtral 8x7B", Streaming: true},
		},
	}
}
