package aibridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeminiChat_CompleteThroughProxy(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "Pong"}], "role": "model"},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 5, "candidatesTokenCount": 1, "totalTokenCount": 6}
		}`))
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "gemini",
		Model:        "gemini-2.0-flash",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_geminitoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "answer with one word"},
			{Role: RoleUser, Content: "ping"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if want := "/v1/ai-providers/proxy/gemini/v1beta/models/gemini-2.0-flash:generateContent"; gotPath != want {
		t.Errorf("request path = %q, want %q", gotPath, want)
	}
	if gotKey != "lbt_geminitoken" {
		t.Errorf("x-goog-api-key = %q, want lbt_geminitoken", gotKey)
	}

	// System text folds into the first user turn; assistant maps to
	// the "model" role on this wire.
	contents, _ := gotBody["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("wire contents = %d entries, want 1", len(contents))
	}
	first, _ := contents[0].(map[string]any)
	parts, _ := first["parts"].([]any)
	part, _ := parts[0].(map[string]any)
	if text, _ := part["text"].(string); text != "answer with one word\nping" {
		t.Errorf("first part text = %q, want system text folded in", text)
	}

	if resp.Text() != "Pong" {
		t.Errorf("Text() = %q, want Pong", resp.Text())
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish reason = %q, want stop", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != 6 {
		t.Errorf("TotalTokens = %d, want 6", resp.Usage.TotalTokens)
	}
}

func TestGeminiChat_StreamThroughProxy(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.RawQuery; got != "alt=sse" {
			t.Errorf("query = %q, want alt=sse", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		events := []string{
			`{"candidates":[{"content":{"parts":[{"text":"Po"}],"role":"model"}}]}`,
			`{"candidates":[{"content":{"parts":[{"text":"ng"}],"role":"model"},"finishReason":"STOP"}]}`,
		}
		for _, e := range events {
			_, _ = io.WriteString(w, "data: "+e+"\n\n")
		}
	}))
	defer proxy.Close()

	client, err := NewLanguageClient(ClientConfig{
		Provider:     "gemini",
		Model:        "gemini-2.0-flash",
		ProxyBaseURL: proxy.URL,
		Token:        "lbt_geminitoken",
	})
	if err != nil {
		t.Fatalf("NewLanguageClient() error = %v", err)
	}

	ch, err := client.CompleteStream(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "ping"}},
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

	if text != "Pong" {
		t.Errorf("streamed text = %q, want Pong", text)
	}
	if finish != "stop" {
		t.Errorf("finish reason = %q, want stop", finish)
	}
}
