package aibridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loomworks/ai-bridge/providers"
)

// cohereChat talks the Cohere v2 chat wire format.
type cohereChat struct {
	httpClient *http.Client
	model      string
	route      string
	headers    map[string]string
}

func newCohereChat(desc providers.Descriptor, model, route, token string, hc *http.Client) *cohereChat {
	return &cohereChat{
		httpClient: hc,
		model:      model,
		route:      route,
		headers:    desc.Auth.Headers(token),
	}
}

type cohereRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	Temperature   *float64  `json:"temperature,omitempty"`
	MaxTokens     *int      `json:"max_tokens,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
	SafetyMode    string    `json:"safety_mode,omitempty"`
	Stream        bool      `json:"stream,omitempty"`
}

type cohereContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cohereUsage struct {
	Tokens struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"tokens"`
}

type cohereResponse struct {
	ID      string `json:"id"`
	Message struct {
		Role    string               `json:"role"`
		Content []cohereContentBlock `json:"content"`
	} `json:"message"`
	Usage        cohereUsage `json:"usage"`
	FinishReason string      `json:"finish_reason"`
}

type cohereErrorResponse struct {
	Message string `json:"message"`
}

func (t *cohereChat) buildBody(req Request, stream bool) ([]byte, error) {
	body := cohereRequest{
		Model:         t.model,
		Messages:      req.Messages,
		Temperature:   req.Temperature,
		MaxTokens:     req.MaxTokens,
		StopSequences: req.Stop,
		SafetyMode:    req.SafetyMode,
		Stream:        stream,
	}
	return json.Marshal(body)
}

func (t *cohereChat) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.route+"/v2/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range t.headers {
		httpReq.Header.Set(name, value)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return httpResp, nil
}

func cohereAPIError(status int, respBody []byte) error {
	var errResp cohereErrorResponse
	if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
		return fmt.Errorf("cohere API error (%d): %s", status, errResp.Message)
	}
	return fmt.Errorf("cohere API error (%d): %s", status, string(respBody))
}

func (t *cohereChat) complete(ctx context.Context, req Request) (*Response, error) {
	body, err := t.buildBody(req, false)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpResp, err := t.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, cohereAPIError(httpResp.StatusCode, respBody)
	}

	var chatResp cohereResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	var contentParts []string
	for _, block := range chatResp.Message.Content {
		if block.Type == "text" {
			contentParts = append(contentParts, block.Text)
		}
	}

	tokens := chatResp.Usage.Tokens
	return &Response{
		ID:    chatResp.ID,
		Model: t.model,
		Choices: []Choice{{
			Index: 0,
			Message: Message{
				Role:    chatResp.Message.Role,
				Content: strings.Join(contentParts, ""),
			},
			FinishReason: strings.ToLower(chatResp.FinishReason),
		}},
		Usage: Usage{
			PromptTokens:     tokens.InputTokens,
			CompletionTokens: tokens.OutputTokens,
			TotalTokens:      tokens.InputTokens + tokens.OutputTokens,
		},
	}, nil
}

type cohereStreamEvent struct {
	Type  string          `json:"type"`
	Delta json.RawMessage `json:"delta"`
}

type cohereContentDelta struct {
	Message struct {
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

type cohereMessageEndDelta struct {
	FinishReason string      `json:"finish_reason"`
	Usage        cohereUsage `json:"usage"`
}

func (t *cohereChat) stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	body, err := t.buildBody(req, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpResp, err := t.post(ctx, body)
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		defer func() { _ = httpResp.Body.Close() }()
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, cohereAPIError(httpResp.StatusCode, respBody)
	}

	ch := make(chan StreamChunk)
	go func() {
		defer close(ch)
		defer func() { _ = httpResp.Body.Close() }()

		scanner := bufio.NewScanner(httpResp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var event cohereStreamEvent
			if json.Unmarshal([]byte(data), &event) != nil {
				continue
			}

			switch event.Type {
			case "content-delta":
				var delta cohereContentDelta
				if json.Unmarshal(event.Delta, &delta) != nil {
					continue
				}
				ch <- StreamChunk{
					Model: t.model,
					Choices: []StreamChoice{{
						Index: 0,
						Delta: MessageDelta{Content: delta.Message.Content.Text},
					}},
				}
			case "message-end":
				var delta cohereMessageEndDelta
				if json.Unmarshal(event.Delta, &delta) != nil {
					continue
				}
				ch <- StreamChunk{
					Model: t.model,
					Choices: []StreamChoice{{
						Index:        0,
						FinishReason: strings.ToLower(delta.FinishReason),
					}},
				}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- StreamChunk{Error: err}
		}
	}()

	return ch, nil
}
