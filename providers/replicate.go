package providers

// Replicate returns the catalog descriptor for the Replicate predictions API.
// Replicate is async (submit then poll) and uses a "Token " auth prefix
// rather than "Bearer ".
func Replicate() Descriptor {
	return Descriptor{
		ID:          "replicate",
		DisplayName: "Replicate",
		BaseURL:     "https://api.replicate.com",
		Wire:        WireReplicate,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "Authorization", Prefix: "Token "},
		DocsURL:     "https://replicate.com/docs",
		SetupInstructions: "Create an API token at replicate.com/account/api-tokens. " +
			"Tokens are sent as `Authorization: Token r8_...`.",
		LanguageModels: []LanguageModel{
			{ID: "meta/meta-llama-3-70b-instruct", DisplayName: "Llama 3 70B Instruct"},
			{ID: "mistralai/mixtral-8x7b-instruct-v0.1", DisplayName: "Mixtral 8x7B Instruct"},
		},
		ImageModels: []ImageModel{
			{ID: "black-forest-labs/flux-schnell", DisplayName: "FLUX.1 [schnell]",
				Sizes: []string{"1024x1024"}},
			{ID: "stability-ai/sdxl", DisplayName: "Stable Diffusion XL",
				Sizes: []string{"512x512", "768x768", "1024x1024"}},
		},
	}
}
