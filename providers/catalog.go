package providers

// Builtin returns the descriptors compiled into the bridge, in catalog order.
// The catalog is extended by adding a descriptor here (or via an overlay file
// loaded at startup) and redeploying, never by runtime mutation.
func Builtin() []Descriptor {
	return []Descriptor{
		OpenAI(),
		Anthropic(),
		Gemini(),
		Mistral(),
		Groq(),
		DeepSeek(),
		Together(),
		Perplexity(),
		Cohere(),
		Replicate(),
		AzureOpenAI(),
		Bedrock(),
		AI21(),
		Fireworks(),
	}
}

// Default builds a registry over the builtin catalog. Panics if the builtin
// catalog is invalid.
func Default() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic("providers: invalid builtin catalog: " + err.Error())
	}
	return r
}
