package aibridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnthropicChat_CompleteThroughProxy(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	var gotBody map[string]any

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "beta-1",
			"content": [{"type": "text", "text": "Hi from beta"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 4}
		}`))
	}))
	defer proxy.Close()

	bridge := newTestBridge(t)
	client, err := bridge.LanguageClient(ClientConfig{
		Provider:     "beta",
		Model:        "beta-1",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_betatoken",
	})
	if err != nil {
		t.Fatalf("LanguageClient() error = %v", err)
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

	if want := "/v1/ai-providers/proxy/beta/v1/messages"; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
	// beta's scheme is a bare x-api-key header: the token travels
	// unprefixed, exactly where the vendor key would sit.
	if gotKey != "lbt_betatoken" {
		t.Errorf("x-api-key = %q, want lbt_betatoken", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header not set")
	}

	// System turns move to the top-level system field.
	if gotBody["system"] != "be brief" {
		t.Errorf("system = %v, want %q", gotBody["system"], "be brief")
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("wire messages = %d, want 1 (system extracted)", len(msgs))
	}

	if resp.Text() != "Hi from beta" {
		t.Errorf("Text() = %q, want %q", resp.Text(), "Hi from beta")
	}
	if resp.Usage.PromptTokens != 10 || resp.Usage.CompletionTokens != 4 {
		t.Errorf("usage = %+v, want 10/4", resp.Usage)
	}
}

func TestAnthropicChat_StreamThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		if body["stream"] != true {
			t.Error("stream flag not set on wire request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"type":"message_start","message":{"id":"msg_02","model":"beta-1","role":"assistant"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"str"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"eam"}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		}
		for _, e := range events {
			_, _ = io.WriteString(w, "data: "+e+"\n\n")
		}
	}))
	defer proxy.Close()

	bridge := newTestBridge(t)
	client, err := bridge.LanguageClient(ClientConfig{
		Provider:     "beta",
		Model:        "beta-1",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_betatoken",
	})
	if err != nil {
		t.Fatalf("LanguageClient() error = %v", err)
	}

	ch, err := client.CompleteStream(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "go"}},
	})
	if err != nil {
		t.Fatalf("CompleteStream() error = %v", err)
	}

	var text, id, finish string
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		id = chunk.ID
		for _, c := range chunk.Choices {
			text += c.Delta.Content
			if c.FinishReason != "" {
				finish = c.FinishReason
			}
		}
	}

	if text != "stream" {
		t.Errorf("streamed text = %q, want stream", text)
	}
	if id != "msg_02" {
		t.Errorf("chunk id = %q, want msg_02", id)
	}
	if finish != "stop" {
		t.Errorf("finish reason = %q, want stop", finish)
	}
}

func TestAnthropicChat_APIErrorSurfaced(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer proxy.Close()

	bridge := newTestBridge(t)
	client, err := bridge.LanguageClient(ClientConfig{
		Provider:     "beta",
		Model:        "beta-1",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_bad",
	})
	if err != nil {
		t.Fatalf("LanguageClient() error = %v", err)
	}

	_, err = client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
	})
	if err == nil {
		t.Fatal("Complete() succeeded on a 401 response")
	}
	if want := "invalid x-api-key"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %v, want containing %q", err, want)
	}
}
