package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/leadqual/internal/domain/llm"
	"github.com/Nyukimin/leadqual/internal/domain/routing"
)

func completionResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1677652288,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     10,
			"completion_tokens": 20,
			"total_tokens":      30,
		},
	}
}

func TestNewOpenAIProvider(t *testing.T) {
	provider := NewOpenAIProvider(Config{APIKey: "test-api-key", Model: "gpt-4"}, nil)

	require.NotNil(t, provider)
	assert.Equal(t, "openai-gpt-4", provider.Name())
}

func TestOpenAIProviderGenerate_Success(t *testing.T) {
	var reqBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))

		_ = json.NewDecoder(r.Body).Decode(&reqBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse(`{"leads":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "test-api-key", BaseURL: server.URL + "/v1/"}, nil)

	temp := 0.3
	resp, err := provider.Generate(context.Background(), llm.GenerateRequest{
		Model:             "gpt-4o",
		SystemInstruction: "be terse",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "hi"},
			{Role: llm.RoleModel, Content: "hello"},
			{Role: llm.RoleUser, Content: "find prospects"},
		},
		Tools:            []routing.Capability{routing.CapabilityGoogleSearch},
		GenerationConfig: &routing.GenerationConfig{Temperature: &temp},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"leads":[]}`, resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.NotEmpty(t, resp.Raw)

	assert.Equal(t, "gpt-4o", reqBody["model"])
	assert.InDelta(t, 0.3, reqBody["temperature"], 1e-9)
	messages, ok := reqBody["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "assistant", messages[2].(map[string]interface{})["role"])
}

func TestOpenAIProviderGenerate_DefaultModel(t *testing.T) {
	var reqBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionResponse("ok"))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL + "/v1/"}, nil)
	_, err := provider.Generate(context.Background(), llm.GenerateRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, defaultModel, reqBody["model"])
}

func TestOpenAIProviderGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid request","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL + "/v1/"}, nil)
	_, err := provider.Generate(context.Background(), llm.GenerateRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestOpenAIProviderGenerate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL + "/v1/"}, nil)
	_, err := provider.Generate(context.Background(), llm.GenerateRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}
