package aibridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCohereChat_CompleteThroughProxy(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1",
			"message": {"role": "assistant", "content": [{"type": "text", "text": "Hello there"}]},
			"finish_reason": "COMPLETE",
			"usage": {"tokens": {"input_tokens": 8, "output_tokens": 3}}
		}`))
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "cohere",
		Model:        "command-r",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_coheretoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages:   []Message{{Role: RoleUser, Content: "hi"}},
		SafetyMode: "STRICT",
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if want := "/v1/ai-providers/proxy/cohere/v2/chat"; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
	if gotAuth != "Bearer lbt_coheretoken" {
		t.Errorf("Authorization = %q, want Bearer lbt_coheretoken", gotAuth)
	}
	if mode, _ := gotBody["safety_mode"].(string); mode != "STRICT" {
		t.Errorf("safety_mode in body = %q, want STRICT", mode)
	}

	if resp.Text() != "Hello there" {
		t.Errorf("Text() = %q, want Hello there", resp.Text())
	}
	if resp.Choices[0].FinishReason != "complete" {
		t.Errorf("finish reason = %q, want complete", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 11 {
		t.Errorf("TotalTokens = %d, want 11", resp.Usage.TotalTokens)
	}
}

func TestCohereChat_StreamThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		if stream, _ := body["stream"].(bool); !stream {
			t.Error("request body stream flag not set")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"type":"message-start","delta":{}}`,
			`{"type":"content-delta","delta":{"message":{"content":{"text":"Hel"}}}}`,
			`{"type":"content-delta","delta":{"message":{"content":{"text":"lo"}}}}`,
			`{"type":"message-end","delta":{"finish_reason":"COMPLETE","usage":{"tokens":{"input_tokens":4,"output_tokens":2}}}}`,
		}
		for _, e := range events {
			_, _ = io.WriteString(w, "data: "+e+"\n\n")
		}
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "cohere",
		Model:        "command-r",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_coheretoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	ch, err := client.CompleteStream(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("CompleteStream() error = %v", err)
	}

	var text, finish string
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("stream error: %v", chunk.Error)
		}
		for _, c := range chunk.Choices {
			text += c.Delta.Content
			if c.FinishReason != "" {
				finish = c.FinishReason
			}
		}
	}

	if text != "Hello" {
		t.Errorf("streamed text = %q, want Hello", text)
	}
	if finish != "complete" {
		t.Errorf("finish reason = %q, want complete", finish)
	}
}

func TestLanguageClient_RejectsUnknownSafetyMode(t *testing.T) {
	client, err := NewLanguageClient(testConfig("cohere", "command-r"))
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	_, err = client.Complete(context.Background(), Request{
		Messages:   []Message{{Role: RoleUser, Content: "hi"}},
		SafetyMode: "YOLO",
	})
	if err == nil {
		t.Fatal("Complete() with unknown safety mode succeeded, want error")
	}
}
