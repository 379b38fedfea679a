package providers

// ModelPricing holds per-token prices in USD per 1 million tokens.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// PricingTable maps "provider/model" keys to pricing data. Prices are USD
// per 1 million tokens as listed on public pricing pages; best-effort and
// may lag behind provider price changes.
var PricingTable = map[string]ModelPricing{
	// OpenAI
	"openai/gpt-4o":        {InputPer1M: 2.50, OutputPer1M: 10.00},
	"openai/gpt-4o-mini":   {InputPer1M: 0.15, OutputPer1M: 0.60},
	"openai/gpt-4-turbo":   {InputPer1M: 10.00, OutputPer1M: 30.00},
	"openai/gpt-3.5-turbo": {InputPer1M: 0.50, OutputPer1M: 1.50},
	"openai/o3-mini":       {InputPer1M: 1.10, OutputPer1M: 4.40},

	// Anthropic
	"anthropic/claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"anthropic/claude-3-5-haiku-20241022":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"anthropic/claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"anthropic/claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},

	// Google Gemini
	"gemini/gemini-2.0-flash":      {InputPer1M: 0.10, OutputPer1M: 0.40},
	"gemini/gemini-2.0-flash-lite": {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini/gemini-1.5-pro":        {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini/gemini-1.5-flash":      {InputPer1M: 0.075, OutputPer1M: 0.30},

	// Mistral
	"mistral/mistral-large-latest":  {InputPer1M: 2.00, OutputPer1M: 6.00},
	"mistral/mistral-medium-latest": {InputPer1M: 2.70, OutputPer1M: 8.10},
	"mistral/mistral-small-latest":  {InputPer1M: 0.20, OutputPer1M: 0.60},
	"mistral/open-mistral-7b":       {InputPer1M: 0.25, OutputPer1M: 0.25},

	// Groq
	"groq/llama-3.3-70b-versatile": {InputPer1M: 0.59, OutputPer1M: 0.79},
	"groq/llama-3.1-8b-instant":    {InputPer1M: 0.05, OutputPer1M: 0.08},
	"groq/mixtral-8x7b-32768":      {InputPer1M: 0.24, OutputPer1M: 0.24},

	// DeepSeek
	"deepseek/deepseek-chat":     {InputPer1M: 0.14, OutputPer1M: 0.28},
	"deepseek/deepseek-reasoner": {InputPer1M: 0.55, OutputPer1M: 2.19},

	// Together AI
	"together/meta-llama/Meta-Llama-3.1-70B-Instruct-Turbo": {InputPer1M: 0.88, OutputPer1M: 0.88},
	"together/meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo":  {InputPer1M: 0.18, OutputPer1M: 0.18},
	"together/mistralai/Mixtral-8x7B-Instruct-v0.1":         {InputPer1M: 0.60, OutputPer1M: 0.60},

	// Perplexity
	"perplexity/sonar":           {InputPer1M: 1.00, OutputPer1M: 1.00},
	"perplexity/sonar-pro":       {InputPer1M: 3.00, OutputPer1M: 15.00},
	"perplexity/sonar-reasoning": {InputPer1M: 1.00, OutputPer1M: 5.00},

	// Cohere
	"cohere/command-r-plus": {InputPer1M: 2.50, OutputPer1M: 10.00},
	"cohere/command-r":      {InputPer1M: 0.15, OutputPer1M: 0.60},
	"cohere/command":        {InputPer1M: 1.00, OutputPer1M: 2.00},

	// AWS Bedrock
	"bedrock/anthropic.claude-3-5-sonnet-20241022-v2:0": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"bedrock/anthropic.claude-3-5-haiku-20241022-v1:0":  {InputPer1M: 0.80, OutputPer1M: 4.00},
	"bedrock/amazon.titan-text-express-v1":              {InputPer1M: 0.20, OutputPer1M: 0.60},
	"bedrock/meta.llama3-1-70b-instruct-v1:0":           {InputPer1M: 0.72, OutputPer1M: 0.72},

	// AI21
	"ai21/jamba-1.5-large": {InputPer1M: 2.00, OutputPer1M: 8.00},
	"ai21/jamba-1.5-mini":  {InputPer1M: 0.20, OutputPer1M: 0.40},

	// Fireworks AI
	"fireworks/accounts/fireworks/models/llama-v3p1-70b-instruct": {InputPer1M: 0.90, OutputPer1M: 0.90},
	"fireworks/accounts/fireworks/models/llama-v3p1-8b-instruct":  {InputPer1M: 0.20, OutputPer1M: 0.20},
	"fireworks/accounts/fireworks/models/firefunction-v2":         {InputPer1M: 0.90, OutputPer1M: 0.90},
}

// ImagePricingTable maps "provider/model" keys to per-image prices in USD,
// keyed by quality tier. The "" key is the price for models without quality
// tiers (or when the caller did not pick one).
var ImagePricingTable = map[string]map[string]float64{
	"openai/dall-e-3":    {"": 0.040, "standard": 0.040, "hd": 0.080},
	"openai/dall-e-2":    {"": 0.020},
	"openai/gpt-image-1": {"": 0.042, "low": 0.011, "medium": 0.042, "high": 0.167},

	"azure-openai/dall-e-3": {"": 0.040, "standard": 0.040, "hd": 0.080},

	"together/black-forest-labs/FLUX.1-schnell":         {"": 0.003},
	"together/stabilityai/stable-diffusion-xl-base-1.0": {"": 0.010},
	"replicate/black-forest-labs/flux-schnell":          {"": 0.003},
	"replicate/stability-ai/sdxl":                       {"": 0.012},
}

// EstimateCost returns the estimated USD cost of a language invocation. It
// looks up pricing by "provider/model" and falls back to zero when the model
// is not in the table.
func EstimateCost(provider, model string, promptTokens, completionTokens int) float64 {
	p, ok := PricingTable[provider+"/"+model]
	if !ok {
		return 0
	}
	inputCost := float64(promptTokens) / 1_000_000 * p.InputPer1M
	outputCost := float64(completionTokens) / 1_000_000 * p.OutputPer1M
	return inputCost + outputCost
}

// EstimateImageCost returns the estimated USD cost of generating n images.
// Unknown models and unknown quality tiers fall back to zero and the tierless
// price respectively.
func EstimateImageCost(provider, model, quality string, n int) float64 {
	tiers, ok := ImagePricingTable[provider+"/"+model]
	if !ok {
		return 0
	}
	price, ok := tiers[quality]
	if !ok {
		price = tiers[""]
	}
	if n <= 0 {
		n = 1
	}
	return price * float64(n)
}
