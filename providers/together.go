package providers

// Together returns the catalog descriptor for the Together AI platform.
// Together speaks the OpenAI wire format for both chat and image generation.
func Together() Descriptor {
	return Descriptor{
		ID:                "together",
		DisplayName:       "Together AI",
		BaseURL:           "https://api.together.xyz/v1",
		Wire:              WireOpenAI,
		Auth:              AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Bearer "},
		ModelsPath:        "/models",
		DocsURL:           "https://docs.together.ai",
		SetupInstructions: "Create an API key in the Together AI settings page.",
		LanguageModels: []LanguageModel{
			{ID: "meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo", DisplayName: "Llama 3.1 70B Turbo", FunctionCalling: true, Streaming: true},
			{ID: "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo", DisplayName: "Llama 3.1 8B Turbo", Streaming: true},
			{ID: "mistralai/Mixtral-8x7B-Instruct-v0.1", DisplayName: "Mixtral 8x7B Instruct", Streaming: true},
		},
		ImageModels: []ImageModel{
			{ID: "black-forest-labs/FLUX.1-schnell", DisplayName: "FLUX.1 [schnell]",
				Sizes: []string{"512x512", "768x768", "1024x1024"}},
			{ID: "stabilityai/stable-diffusion-xl-base-1.0", DisplayName: "Stable Diffusion XL",
				Sizes: []string{"512x512", "1024x1024"}},
		},
	}
}
