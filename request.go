package aibridge

import (
	"errors"
	"fmt"
)

// Chat roles understood by every wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request holds the per-call parameters for a language generation.
// The target model is fixed when the client is constructed and is not
// part of the request.
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	// JSONMode asks the model to emit a single valid JSON object.
	// Only honored by models whose descriptor advertises it.
	JSONMode bool `json:"json_mode,omitempty"`
	// ReasoningEffort selects a thinking budget on reasoning models.
	// Valid values come from AdvancedOptions for the bound model.
	ReasoningEffort string `json:"reasoning_effort,omitempty"`
	// SafetyMode selects a content-safety preset on providers that
	// support one (currently Cohere).
	SafetyMode string `json:"safety_mode,omitempty"`
	User       string `json:"user,omitempty"`
}

// Validate checks the request parameters before any network traffic.
func (r *Request) Validate() error {
	if len(r.Messages) == 0 {
		return errors.New("request has no messages")
	}
	for i, m := range r.Messages {
		if m.Role == "" {
			return fmt.Errorf("message %d has no role", i)
		}
	}
	if r.MaxTokens != nil && *r.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", *r.MaxTokens)
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", *r.Temperature)
	}
	if r.TopP != nil && (*r.TopP < 0 || *r.TopP > 1) {
		return fmt.Errorf("top_p must be between 0 and 1, got %g", *r.TopP)
	}
	return nil
}

// Usage reports token consumption for a completed call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Choice is one generated alternative in a Response.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Response is the normalized result of a language generation call.
type Response struct {
	ID       string   `json:"id"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Created  int64    `json:"created,omitempty"`
	Choices  []Choice `json:"choices"`
	Usage    Usage    `json:"usage"`
}

// Text returns the content of the first choice, or "" when the
// response carries none.
func (r *Response) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// MessageDelta is the incremental payload of one stream event.
type MessageDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// StreamChoice mirrors Choice for streamed responses.
type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        MessageDelta `json:"delta"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// StreamChunk is one event on a streaming response channel. A non-nil
// Error terminates the stream; the channel is closed after it.
type StreamChunk struct {
	ID      string         `json:"id,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []StreamChoice `json:"choices,omitempty"`
	Usage   *Usage         `json:"usage,omitempty"`
	Error   error          `json:"-"`
}

// ImageRequest holds the per-call parameters for an image generation.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	// N is the number of images to generate. Zero means one.
	N    int    `json:"n,omitempty"`
	Size string `json:"size,omitempty"`
	// Quality and Style accept the values AdvancedOptions reports for
	// the bound model. Clients reject values the model does not offer.
	Quality        string `json:"quality,omitempty"`
	Style          string `json:"style,omitempty"`
	ResponseFormat string `json:"response_format,omitempty"`
	User           string `json:"user,omitempty"`
}

// Validate checks the request parameters before any network traffic.
func (r *ImageRequest) Validate() error {
	if r.Prompt == "" {
		return errors.New("image request has no prompt")
	}
	if r.N < 0 {
		return fmt.Errorf("n must not be negative, got %d", r.N)
	}
	return nil
}

// GeneratedImage is one image in an ImageResponse. Exactly one of URL
// and B64JSON is set, depending on the requested response format.
type GeneratedImage struct {
	URL           string `json:"url,omitempty"`
	B64JSON       string `json:"b64_json,omitempty"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResponse is the normalized result of an image generation call.
type ImageResponse struct {
	Created  int64            `json:"created"`
	Provider string           `json:"provider"`
	Model    string           `json:"model"`
	Images   []GeneratedImage `json:"images"`
}
