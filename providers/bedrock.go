package providers

// Bedrock returns the catalog descriptor for AWS Bedrock. Bedrock requests
// are SigV4-signed, so there is no credential header; the forwarder signs
// with the stored AWS credential and the region it names. BaseURL is the
// us-east-1 endpoint; the credential region overrides it.
func Bedrock() Descriptor {
	return Descriptor{
		ID:          "bedrock",
		DisplayName: "AWS Bedrock",
		BaseURL:     "https://bedrock-runtime.us-east-1.amazonaws.com",
		Wire:        WireBedrock,
		Auth:        AuthScheme{Kind: AuthSigV4},
		DocsURL:     "https://docs.aws.amazon.com/bedrock/",
		SetupInstructions: "Store an `aws` credential with an access key id, secret access key " +
			"and region for an IAM principal allowed to call `bedrock:InvokeModel`.",
		LanguageModels: []LanguageModel{
			{ID: "anthropic.claude-3-5-sonnet-20241022-v2:0", DisplayName: "Claude 3.5 Sonnet v2", FunctionCalling: true, Vision: true, Streaming: true},
			{ID: "anthropic.claude-3-5-haiku-20241022-v1:0", DisplayName: "Claude 3.5 Haiku", FunctionCalling: true, Streaming: true},
			{ID: "amazon.titan-text-express-v1", DisplayName: "Titan Text Express"},
			{ID: "meta.llama3-1-70b-instruct-v1:0", DisplayName: "Llama 3.1 70B Instruct"},
		},
	}
}
