package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chatAnswer(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":   0,
				"message": map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func makeChatServer(t *testing.T, statusCode int, body any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_ParsesAssessment(t *testing.T) {
	srv := makeChatServer(t, http.StatusOK,
		chatAnswer(`{"relevant":true,"summary":"Junior Go role."}`))

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	got, err := o.Enrich(context.Background(), samplePosting())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Relevant {
		t.Error("Relevant = false, want true")
	}
	if got.Summary != "Junior Go role." {
		t.Errorf("Summary = %q", got.Summary)
	}
	if got.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", got.Model)
	}
}

func TestOpenAI_ServerError(t *testing.T) {
	srv := makeChatServer(t, http.StatusInternalServerError,
		map[string]any{"error": map[string]any{"message": "boom", "type": "server_error"}})

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	if _, err := o.Enrich(context.Background(), samplePosting()); err == nil {
		t.Fatal("expected error on 5xx response")
	}
}

func TestOpenAI_BadAssessmentJSON(t *testing.T) {
	srv := makeChatServer(t, http.StatusOK, chatAnswer("sure, sounds junior to me"))

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	if _, err := o.Enrich(context.Background(), samplePosting()); err == nil {
		t.Fatal("expected error for a non-JSON answer")
	}
}

func TestOpenAI_RequestsJSONObjectFormat(t *testing.T) {
	var gotReq struct {
		Model          string `json:"model"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatAnswer(`{"relevant":false,"summary":""}`))
	}))
	defer srv.Close()

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	if _, err := o.Enrich(context.Background(), samplePosting()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("response_format.type = %q, want json_object", gotReq.ResponseFormat.Type)
	}
}
