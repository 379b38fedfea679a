package aibridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/loomworks/ai-bridge/providers"
)

const replicatePollInterval = 500 * time.Millisecond

// replicateCore submits predictions and polls them until they settle.
// Replicate is async by nature: a POST creates a prediction, and the
// client polls its status until it succeeds or fails.
type replicateCore struct {
	httpClient *http.Client
	model      string
	route      string
	headers    map[string]string
}

type replicatePrediction struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Output any    `json:"output"`
	Error  string `json:"error,omitempty"`
}

func (c *replicateCore) submitAndPoll(ctx context.Context, input any) (*replicatePrediction, error) {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.route, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, value := range c.headers {
		httpReq.Header.Set(name, value)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// Ask the API to hold the connection until the prediction settles
	// when it can.
	httpReq.Header.Set("Prefer", "wait")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusCreated && httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replicate API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var pred replicatePrediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prediction: %w", err)
	}

	switch pred.Status {
	case "succeeded":
		return &pred, nil
	case "failed", "canceled":
		return nil, fmt.Errorf("replicate prediction %s: %s", pred.Status, pred.Error)
	}

	pollURL := fmt.Sprintf("%s/v1/predictions/%s", c.route, pred.ID)
	ticker := time.NewTicker(replicatePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			pollReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create poll request: %w", err)
			}
			for name, value := range c.headers {
				pollReq.Header.Set(name, value)
			}

			pollResp, err := c.httpClient.Do(pollReq)
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			pollBody, _ := io.ReadAll(pollResp.Body)
			_ = pollResp.Body.Close()

			if err := json.Unmarshal(pollBody, &pred); err != nil {
				return nil, fmt.Errorf("failed to unmarshal poll response: %w", err)
			}

			switch pred.Status {
			case "succeeded":
				return &pred, nil
			case "failed", "canceled":
				return nil, fmt.Errorf("replicate prediction %s: %s", pred.Status, pred.Error)
			}
		}
	}
}

// outputText flattens a prediction output into a string. Text models
// return either a string or a list of token strings.
func (p *replicatePrediction) outputText() string {
	switch v := p.Output.(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "")
	}
	return ""
}

// outputURLs flattens a prediction output into image URLs.
func (p *replicatePrediction) outputURLs() []string {
	switch v := p.Output.(type) {
	case string:
		return []string{v}
	case []any:
		var urls []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				urls = append(urls, s)
			}
		}
		return urls
	}
	return nil
}

// replicateChat runs language models through the predictions API.
type replicateChat struct {
	replicateCore
}

func newReplicateChat(desc providers.Descriptor, model, route, token string, hc *http.Client) *replicateChat {
	return &replicateChat{replicateCore{
		httpClient: hc,
		model:      model,
		route:      route,
		headers:    desc.Auth.Headers(token),
	}}
}

type replicateTextInput struct {
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

func (t *replicateChat) complete(ctx context.Context, req Request) (*Response, error) {
	var sb strings.Builder
	for _, msg := range req.Messages {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("assistant: ")

	input := replicateTextInput{
		Prompt:      sb.String(),
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if req.MaxTokens != nil {
		input.MaxTokens = *req.MaxTokens
	}

	pred, err := t.submitAndPoll(ctx, input)
	if err != nil {
		return nil, err
	}

	return &Response{
		ID:    pred.ID,
		Model: t.model,
		Choices: []Choice{{
			Index:        0,
			Message:      Message{Role: RoleAssistant, Content: pred.outputText()},
			FinishReason: "stop",
		}},
	}, nil
}

func (t *replicateChat) stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	return nil, fmt.Errorf("replicate predictions do not stream")
}

// replicateImages runs image models through the predictions API.
type replicateImages struct {
	replicateCore
}

func newReplicateImages(desc providers.Descriptor, model, route, token string, hc *http.Client) *replicateImages {
	return &replicateImages{replicateCore{
		httpClient: hc,
		model:      model,
		route:      route,
		headers:    desc.Auth.Headers(token),
	}}
}

type replicateImageInput struct {
	Prompt     string `json:"prompt"`
	NumOutputs int    `json:"num_outputs,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
}

func (t *replicateImages) generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	input := replicateImageInput{
		Prompt:     req.Prompt,
		NumOutputs: req.N,
	}
	if req.Size != "" {
		var w, h int
		if _, err := fmt.Sscanf(req.Size, "%dx%d", &w, &h); err == nil {
			input.Width = w
			input.Height = h
		}
	}

	pred, err := t.submitAndPoll(ctx, input)
	if err != nil {
		return nil, err
	}

	var images []GeneratedImage
	for _, url := range pred.outputURLs() {
		images = append(images, GeneratedImage{URL: url})
	}

	return &ImageResponse{
		Created: time.Now().Unix(),
		Images:  images,
	}, nil
}
