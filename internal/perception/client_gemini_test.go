package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(serverURL string) *GeminiClient {
	return NewGeminiClientWithConfig(GeminiConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	})
}

func geminiTextResponse(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}],"role":"model"}}]}`, text)
}

func TestCompleteWithSystem(t *testing.T) {
	var gotReq GeminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		fmt.Fprint(w, geminiTextResponse("hello back"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.CompleteWithSystem(context.Background(), "be terse", "hello")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if resp != "hello back" {
		t.Errorf("Expected %q, got %q", "hello back", resp)
	}
	if gotReq.SystemInstruction == nil || gotReq.SystemInstruction.Parts[0].Text != "be terse" {
		t.Errorf("System instruction not sent: %+v", gotReq.SystemInstruction)
	}
	if gotReq.Contents[0].Parts[0].Text != "hello" {
		t.Errorf("User prompt not sent: %+v", gotReq.Contents)
	}
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, geminiTextResponse("after retry"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp != "after retry" {
		t.Errorf("Expected %q, got %q", "after retry", resp)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 calls (429 then success), got %d", calls.Load())
	}
}

func TestCompleteWithSchemaSetsResponseFormat(t *testing.T) {
	var gotReq GeminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		fmt.Fprint(w, geminiTextResponse(`{"answer": 42}`))
	}))
	defer server.Close()

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"answer": map[string]interface{}{"type": "integer"},
		},
	}

	client := newTestClient(server.URL)
	resp, err := client.CompleteWithSchema(context.Background(), "", "what is the answer", schema)
	if err != nil {
		t.Fatalf("CompleteWithSchema failed: %v", err)
	}
	if !strings.Contains(resp, "42") {
		t.Errorf("Unexpected response: %q", resp)
	}
	if gotReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("Expected application/json mime type, got %q", gotReq.GenerationConfig.ResponseMimeType)
	}
	if gotReq.GenerationConfig.ResponseSchema == nil {
		t.Error("Response schema not sent")
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":400,"message":"bad prompt","status":"INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Complete(context.Background(), "hello"); err == nil {
		t.Error("Expected API error")
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	client := NewGeminiClientWithConfig(GeminiConfig{APIKey: ""})
	if _, err := client.Complete(context.Background(), "hello"); err == nil {
		t.Error("Expected error for missing API key")
	}
}
