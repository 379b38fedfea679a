package providers

// OpenAI returns the catalog descriptor for the OpenAI platform API.
func OpenAI() Descriptor {
	return Descriptor{
		ID:          "openai",
		DisplayName: "OpenAI",
		BaseURL:     "https://api.openai.com/v1",
		Wire:        WireOpenAI,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:  "/models",
		DocsURL:     "https://platform.openai.com/docs",
		SetupInstructions: "Create an API key under **Settings → API keys** in the OpenAI " +
			"platform dashboard and store it as an `api_key` credential for this provider.",
		LanguageModels: []LanguageModel{
			{ID: "gpt-4o", DisplayName: "GPT-4o", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gpt-4-turbo", DisplayName: "GPT-4 Turbo", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gpt-3.5-turbo", DisplayName: "GPT-3.5 Turbo", FunctionCalling: true, Streaming: true},
			{ID: "o3-mini", DisplayName: "o3-mini", Streaming: true, Reasoning: true,
				ReasoningEfforts: []string{"low", "medium", "high"}},
		},
		ImageModels: []ImageModel{
			{ID: "dall-e-3", DisplayName: "DALL·E 3",
				Sizes:     []string{"1024x1024", "1792x1024", "1024x1792"},
				Qualities: []string{"standard", "hd"},
				Styles:    []string{"vivid", "natural"}},
			{ID: "dall-e-2", DisplayName: "DALL·E 2",
				Sizes: []string{"256x256", "512x512", "1024x1024"}},
			{ID: "gpt-image-1", DisplayName: "GPT Image 1",
				Sizes:     []string{"1024x1024", "1536x1024", "1024x1536"},
				Qualities: []string{"low", "medium", "high"}},
		},
	}
}
