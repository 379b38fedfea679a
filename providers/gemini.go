package providers

// Gemini returns the catalog descriptor for the Google generative language API.
func Gemini() Descriptor {
	return Descriptor{
		ID:          "gemini",
		DisplayName: "Google Gemini",
		BaseURL:     "https://generativelanguage.googleapis.com",
		Wire:        WireGemini,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "x-goog-api-key"},
		ModelsPath:  "/v1beta/models",
		DocsURL:     "https://ai.google.dev/gemini-api/docs",
		SetupInstructions: "Create an API key in Google AI Studio and store it as an " +
			"`api_key` credential. The key is sent in the `x-goog-api-key` header.",
		LanguageModels: []LanguageModel{
			{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gemini-2.0-flash-lite", DisplayName: "Gemini 2.0 Flash-Lite", Streaming: true},
			{ID: "gemini-1.5-pro", DisplayName: "Gemini 1.5 Pro", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gemini-1.5-flash", DisplayName: "Gemini 1.5 Flash", FunctionCalling: true, Vision: true, Streaming: true},
		},
	}
}
