package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
)

func TestGenerateMapsParams(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Done. "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL+"/v1")
	text, err := c.Generate(context.Background(), ai.Call{
		Model:  "mistral-small",
		Prompt: "system\n\nrequest",
		Params: ai.DefaultParams()[ai.FamilyMistral],
	})
	require.NoError(t, err)
	assert.Equal(t, "Done.", text)

	assert.Equal(t, "mistral-small", got["model"])
	assert.Equal(t, 800.0, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "system\n\nrequest", msgs[0].(map[string]any)["content"])
}

func TestGenerateReasoningModelUsesCompletionTokens(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	_, err := NewClient("key", srv.URL+"/v1").Generate(context.Background(), ai.Call{
		Model:  "o3-mini",
		Params: ai.DefaultParams()[ai.FamilyDefault],
	})
	require.NoError(t, err)
	assert.Equal(t, 800.0, got["max_completion_tokens"])
	assert.NotContains(t, got, "max_tokens")
}

func TestGenerateErrors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL+"/v1")
	_, err := c.Generate(context.Background(), ai.Call{Model: "gpt-4o"})
	assert.ErrorIs(t, err, ai.ErrQuotaExceeded)

	status = http.StatusInternalServerError
	_, err = c.Generate(context.Background(), ai.Call{Model: "gpt-4o"})
	var se *ai.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o","object":"model"},{"id":"o3-mini","object":"model"}]}`))
	}))
	defer srv.Close()

	models, err := NewClient("key", srv.URL+"/v1").Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "o3-mini"}, models)
}
