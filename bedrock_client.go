package aibridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// bedrockChat talks the Bedrock InvokeModel wire format through the
// proxy. This leg is not SigV4-signed: the bridge token travels as a
// bearer header and the proxy signs the forwarded request with the
// stored AWS credential. The SDK client is pointed at the proxy route
// with anonymous credentials so it skips its own signing.
type bedrockChat struct {
	client *bedrockruntime.Client
	model  string
}

func newBedrockChat(model, route, token string, hc *http.Client) *bedrockChat {
	tokenClient := &http.Client{
		Transport: &headerTransport{
			base:    hc.Transport,
			headers: map[string]string{"Authorization": "Bearer " + token},
		},
		Timeout: hc.Timeout,
	}
	client := bedrockruntime.New(bedrockruntime.Options{
		BaseEndpoint: aws.String(route),
		Region:       "us-east-1",
		Credentials:  aws.AnonymousCredentials{},
		HTTPClient:   tokenClient,
	})
	return &bedrockChat{client: client, model: model}
}

type bedrockAnthropicRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	StopSequences    []string  `json:"stop_sequences,omitempty"`
	System           string    `json:"system,omitempty"`
}

type bedrockAnthropicResponse struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type bedrockTitanRequest struct {
	InputText            string `json:"inputText"`
	TextGenerationConfig struct {
		MaxTokenCount int      `json:"maxTokenCount,omitempty"`
		Temperature   float64  `json:"temperature,omitempty"`
		TopP          *float64 `json:"topP,omitempty"`
		StopSequences []string `json:"stopSequences,omitempty"`
	} `json:"textGenerationConfig"`
}

type bedrockTitanResponse struct {
	InputTextTokenCount int `json:"inputTextTokenCount"`
	Results             []struct {
		TokenCount       int    `json:"tokenCount"`
		OutputText       string `json:"outputText"`
		CompletionReason string `json:"completionReason"`
	} `json:"results"`
}

type bedrockLlamaRequest struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   int      `json:"max_gen_len,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

type bedrockLlamaResponse struct {
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	StopReason           string `json:"stop_reason"`
}

// complete dispatches on the model family prefix. Each family has its
// own invoke payload shape.
func (t *bedrockChat) complete(ctx context.Context, req Request) (*Response, error) {
	if strings.HasPrefix(t.model, "anthropic.") {
		return t.completeAnthropic(ctx, req)
	}
	if strings.HasPrefix(t.model, "amazon.titan") {
		return t.completeTitan(ctx, req)
	}
	if strings.HasPrefix(t.model, "meta.llama") {
		return t.completeLlama(ctx, req)
	}
	return nil, fmt.Errorf("unsupported Bedrock model family for model %q", t.model)
}

func (t *bedrockChat) invoke(ctx context.Context, body []byte) ([]byte, error) {
	output, err := t.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(t.model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock invoke failed: %w", err)
	}
	return output.Body, nil
}

func splitSystem(messages []Message) (string, []Message) {
	var system string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func (t *bedrockChat) completeAnthropic(ctx context.Context, req Request) (*Response, error) {
	maxTokens := 1024
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	system, messages := splitSystem(req.Messages)

	body, err := json.Marshal(bedrockAnthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Messages:         messages,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		StopSequences:    req.Stop,
		System:           system,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := t.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var invokeResp bedrockAnthropicResponse
	if err := json.Unmarshal(respBody, &invokeResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, c := range invokeResp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return &Response{
		ID:    invokeResp.ID,
		Model: t.model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: RoleAssistant, Content: text.String()},
			FinishReason: invokeResp.StopReason,
		}},
		Usage: Usage{
			PromptTokens:     invokeResp.Usage.InputTokens,
			CompletionTokens: invokeResp.Usage.OutputTokens,
			TotalTokens:      invokeResp.Usage.InputTokens + invokeResp.Usage.OutputTokens,
		},
	}, nil
}

func (t *bedrockChat) completeTitan(ctx context.Context, req Request) (*Response, error) {
	var sb strings.Builder
	for _, msg := range req.Messages {
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}

	titanReq := bedrockTitanRequest{InputText: sb.String()}
	if req.MaxTokens != nil {
		titanReq.TextGenerationConfig.MaxTokenCount = *req.MaxTokens
	}
	if req.Temperature != nil {
		titanReq.TextGenerationConfig.Temperature = *req.Temperature
	}
	titanReq.TextGenerationConfig.TopP = req.TopP
	titanReq.TextGenerationConfig.StopSequences = req.Stop

	body, err := json.Marshal(titanReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := t.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var titanResp bedrockTitanResponse
	if err := json.Unmarshal(respBody, &titanResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var choices []Choice
	completionTokens := 0
	for i, result := range titanResp.Results {
		completionTokens += result.TokenCount
		choices = append(choices, Choice{
			Index:        i,
			Message:      Message{Role: RoleAssistant, Content: result.OutputText},
			FinishReason: strings.ToLower(result.CompletionReason),
		})
	}

	return &Response{
		Model:   t.model,
		Choices: choices,
		Usage: Usage{
			PromptTokens:     titanResp.InputTextTokenCount,
			CompletionTokens: completionTokens,
			TotalTokens:      titanResp.InputTextTokenCount + completionTokens,
		},
	}, nil
}

func (t *bedrockChat) completeLlama(ctx context.Context, req Request) (*Response, error) {
	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	for _, msg := range req.Messages {
		fmt.Fprintf(&sb, "<|start_header_id|>%s<|end_header_id|>\n\n%s<|eot_id|>\n", msg.Role, msg.Content)
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")

	llamaReq := bedrockLlamaRequest{
		Prompt:      sb.String(),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if req.MaxTokens != nil {
		llamaReq.MaxGenLen = *req.MaxTokens
	}

	body, err := json.Marshal(llamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	respBody, err := t.invoke(ctx, body)
	if err != nil {
		return nil, err
	}

	var llamaResp bedrockLlamaResponse
	if err := json.Unmarshal(respBody, &llamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &Response{
		Model: t.model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: RoleAssistant, Content: llamaResp.Generation},
			FinishReason: llamaResp.StopReason,
		}},
		Usage: Usage{
			PromptTokens:     llamaResp.PromptTokenCount,
			CompletionTokens: llamaResp.GenerationTokenCount,
			TotalTokens:      llamaResp.PromptTokenCount + llamaResp.GenerationTokenCount,
		},
	}, nil
}

// stream uses InvokeModelWithResponseStream. Only the Anthropic
// payload shape is wired for streaming; the catalog marks the other
// families accordingly.
func (t *bedrockChat) stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	if !strings.HasPrefix(t.model, "anthropic.") {
		return nil, fmt.Errorf("bedrock streaming is only supported for anthropic.* models")
	}

	maxTokens := 1024
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	system, messages := splitSystem(req.Messages)

	body, err := json.Marshal(bedrockAnthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        maxTokens,
		Messages:         messages,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		StopSequences:    req.Stop,
		System:           system,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := t.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(t.model),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock streaming invoke failed: %w", err)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		stream := output.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			chunk, ok := event.(*types.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			var delta struct {
				Type  string `json:"type"`
				Index int    `json:"index"`
				Delta struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"delta"`
			}
			if err := json.Unmarshal(chunk.Value.Bytes, &delta); err != nil {
				continue
			}
			if delta.Type == "content_block_delta" && delta.Delta.Type == "text_delta" {
				ch <- StreamChunk{
					Model: t.model,
					Choices: []StreamChoice{{
						Index: delta.Index,
						Delta: MessageDelta{Content: delta.Delta.Text},
					}},
				}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- StreamChunk{Error: err}
		}
	}()

	return ch, nil
}
