package aibridge

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/loomworks/ai-bridge/providers"
)

// sdkOptions assembles the openai-go client options for one provider
// route. Bearer schemes go through WithAPIKey; everything else (Azure's
// api-key header, Replicate-style prefixes) is set as a literal header
// so the proxy sees the token exactly where the vendor credential
// would sit.
func sdkOptions(desc providers.Descriptor, route, token string, hc *http.Client) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithBaseURL(route + "/"),
		option.WithHTTPClient(hc),
	}
	if desc.Auth.Header == "Authorization" && desc.Auth.Prefix == "Bearer " {
		opts = append(opts, option.WithAPIKey(token))
		return opts
	}
	for name, value := range desc.Auth.Headers(token) {
		opts = append(opts, option.WithHeader(name, value))
	}
	return opts
}

// openaiChat talks the OpenAI chat-completions wire format. It serves
// OpenAI itself and the OpenAI-compatible providers (Azure, Mistral,
// Groq, DeepSeek, Together, Perplexity, AI21, Fireworks).
type openaiChat struct {
	client openai.Client
	model  string
}

func newOpenAIChat(desc providers.Descriptor, model, route, token string, hc *http.Client) *openaiChat {
	return &openaiChat{
		client: openai.NewClient(sdkOptions(desc, route, token, hc)...),
		model:  model,
	}
}

func (t *openaiChat) buildParams(req Request) (openai.ChatCompletionNewParams, []option.RequestOption) {
	params := openai.ChatCompletionNewParams{
		Messages: buildOpenAIMessages(req.Messages),
		Model:    t.model,
	}
	if req.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}
	if req.User != "" {
		params.User = openai.String(req.User)
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	var extra []option.RequestOption
	if req.ReasoningEffort != "" {
		extra = append(extra, option.WithJSONSet("reasoning_effort", req.ReasoningEffort))
	}
	return params, extra
}

func (t *openaiChat) complete(ctx context.Context, req Request) (*Response, error) {
	params, extra := t.buildParams(req)

	completion, err := t.client.Chat.Completions.New(ctx, params, extra...)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ID:      completion.ID,
		Model:   completion.Model,
		Created: completion.Created,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}
	for i, choice := range completion.Choices {
		resp.Choices = append(resp.Choices, Choice{
			Index: i,
			Message: Message{
				Role:    string(choice.Message.Role),
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		})
	}
	return resp, nil
}

func (t *openaiChat) stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	params, extra := t.buildParams(req)

	stream := t.client.Chat.Completions.NewStreaming(ctx, params, extra...)

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		for stream.Next() {
			chunk := stream.Current()
			sc := StreamChunk{
				ID:    chunk.ID,
				Model: chunk.Model,
			}
			for _, c := range chunk.Choices {
				sc.Choices = append(sc.Choices, StreamChoice{
					Index: int(c.Index),
					Delta: MessageDelta{
						Role:    c.Delta.Role,
						Content: c.Delta.Content,
					},
					FinishReason: c.FinishReason,
				})
			}
			ch <- sc
		}
		if err := stream.Err(); err != nil {
			ch <- StreamChunk{Error: err}
		}
	}()

	return ch, nil
}

// buildOpenAIMessages converts bridge Messages to the openai-go union
// type.
func buildOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// openaiImages talks the OpenAI images wire format for DALL-E and
// gpt-image-1 style models.
type openaiImages struct {
	client openai.Client
	model  string
}

func newOpenAIImages(desc providers.Descriptor, model, route, token string, hc *http.Client) *openaiImages {
	return &openaiImages{
		client: openai.NewClient(sdkOptions(desc, route, token, hc)...),
		model:  model,
	}
}

func (t *openaiImages) generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(t.model),
	}
	if req.N > 0 {
		params.N = openai.Int(int64(req.N))
	}
	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}
	if req.Quality != "" {
		params.Quality = openai.ImageGenerateParamsQuality(req.Quality)
	}
	if req.Style != "" {
		params.Style = openai.ImageGenerateParamsStyle(req.Style)
	}
	switch req.ResponseFormat {
	case "b64_json":
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
	case "url":
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatURL
	}
	if req.User != "" {
		params.User = openai.String(req.User)
	}

	result, err := t.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, err
	}

	images := make([]GeneratedImage, len(result.Data))
	for i, d := range result.Data {
		images[i] = GeneratedImage{
			URL:           d.URL,
			B64JSON:       d.B64JSON,
			RevisedPrompt: d.RevisedPrompt,
		}
	}
	return &ImageResponse{Created: result.Created, Images: images}, nil
}
