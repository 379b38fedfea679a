package providers

// AzureOpenAI returns the catalog descriptor for Azure OpenAI Service.
// BaseURL is empty because the endpoint is account-scoped
// (https://<resource>.openai.azure.com); the credential record supplies it.
// Auth is either the `api-key` header or an Entra ID bearer token obtained
// via OAuth2 client credentials; the credential kind decides.
func AzureOpenAI() Descriptor {
	return Descriptor{
		ID:          "azure-openai",
		DisplayName: "Azure OpenAI",
		BaseURL:     "",
		Wire:        WireOpenAI,
		Auth:        AuthScheme{Kind: AuthHeader, Header: "api-key"},
		DocsURL:     "https://learn.microsoft.com/azure/ai-services/openai/",
		SetupInstructions: "Store either an `api_key` credential with the resource key, or an " +
			"`oauth2` credential with an Entra ID app registration (client id/secret, token URL " +
			"`https://login.microsoftonline.com/<tenant>/oauth2/v2.0/token`, scope " +
			"`https://cognitiveservices.azure.com/.default`). Set the credential base URL to " +
			"your resource endpoint. Model ids below must match your deployment names.",
		LanguageModels: []LanguageModel{
			{ID: "gpt-4o", DisplayName: "GPT-4o", FunctionCalling: true, Vision: true, Streaming: true, JSONMode: true},
			{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini", FunctionCalling: true, Streaming: true, JSONMode: true},
			{ID: "gpt-35-turbo", DisplayName: "GPT-3.5 Turbo", FunctionCalling: true, Streaming: true},
		},
		ImageModels: []ImageModel{
			{ID: "dall-e-3", DisplayName: "DALL·E 3",
				Sizes:     []string{"1024x1024", "1792x1024", "1024x1792"},
				Qualities: []string{"standard", "hd"},
				Styles:    []string{"vivid", "natural"}},
		},
	}
}
