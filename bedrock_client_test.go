package aibridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBedrockChat_CompleteThroughProxy(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_bdrk_01",
			"role": "assistant",
			"content": [{"type": "text", "text": "Hello from Bedrock"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`))
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "bedrock",
		Model:        "anthropic.claude-3-5-sonnet-20241022-v2:0",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_bedrocktoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	// The SDK escapes the model id in the request path; the handler
	// sees it decoded again.
	if want := "/v1/ai-providers/proxy/bedrock/model/anthropic.claude-3-5-sonnet-20241022-v2:0/invoke"; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
	if gotAuth != "Bearer lbt_bedrocktoken" {
		t.Errorf("Authorization = %q, want Bearer lbt_bedrocktoken", gotAuth)
	}

	if version, _ := gotBody["anthropic_version"].(string); version != "bedrock-2023-05-31" {
		t.Errorf("anthropic_version = %q, want bedrock-2023-05-31", version)
	}
	if system, _ := gotBody["system"].(string); system != "be brief" {
		t.Errorf("system = %q, want be brief", system)
	}
	if maxTokens, _ := gotBody["max_tokens"].(float64); maxTokens != 1024 {
		t.Errorf("max_tokens = %v, want default 1024", gotBody["max_tokens"])
	}
	messages, _ := gotBody["messages"].([]any)
	if len(messages) != 1 {
		t.Errorf("wire messages = %d entries, want 1 after system extraction", len(messages))
	}

	if resp.Text() != "Hello from Bedrock" {
		t.Errorf("Text() = %q, want Hello from Bedrock", resp.Text())
	}
	if resp.Provider != "bedrock" {
		t.Errorf("Provider = %q, want bedrock", resp.Provider)
	}
	if resp.Usage.TotalTokens != 16 {
		t.Errorf("TotalTokens = %d, want 16", resp.Usage.TotalTokens)
	}
}

func TestBedrockChat_TitanPayloadShape(t *testing.T) {
	var gotBody map[string]any
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"inputTextTokenCount": 3,
			"results": [{"tokenCount": 5, "outputText": "Titan says hi", "completionReason": "FINISH"}]
		}`))
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "bedrock",
		Model:        "amazon.titan-text-express-v1",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_bedrocktoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	maxTokens := 256
	resp, err := client.Complete(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if _, ok := gotBody["inputText"]; !ok {
		t.Error("request body missing inputText")
	}
	cfg, _ := gotBody["textGenerationConfig"].(map[string]any)
	if count, _ := cfg["maxTokenCount"].(float64); count != 256 {
		t.Errorf("maxTokenCount = %v, want 256", cfg["maxTokenCount"])
	}

	if resp.Text() != "Titan says hi" {
		t.Errorf("Text() = %q, want Titan says hi", resp.Text())
	}
	if resp.Choices[0].FinishReason != "finish" {
		t.Errorf("finish reason = %q, want finish", resp.Choices[0].FinishReason)
	}
}

func TestBedrockChat_LlamaPromptFormat(t *testing.T) {
	var gotBody map[string]any
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"generation": "Llama says hi",
			"prompt_token_count": 7,
			"generation_token_count": 4,
			"stop_reason": "stop"
		}`))
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "bedrock",
		Model:        "meta.llama3-1-70b-instruct-v1:0",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_bedrocktoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	prompt, _ := gotBody["prompt"].(string)
	want := "<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\nhi<|eot_id|>\n<|start_header_id|>assistant<|end_header_id|>\n\n"
	if prompt != want {
		t.Errorf("prompt = %q, want %q", prompt, want)
	}

	if resp.Text() != "Llama says hi" {
		t.Errorf("Text() = %q, want Llama says hi", resp.Text())
	}
	if resp.Usage.TotalTokens != 11 {
		t.Errorf("TotalTokens = %d, want 11", resp.Usage.TotalTokens)
	}
}
