package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
)

func TestGenerateSendsOptions(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"  Executive summary.  \n","done":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	params := ai.DefaultParams()[ai.FamilyGemma]
	text, err := c.Generate(context.Background(), ai.Call{Model: "gemma:2b", Prompt: "hello", Params: params})
	require.NoError(t, err)
	assert.Equal(t, "Executive summary.", text)

	assert.Equal(t, "gemma:2b", got["model"])
	assert.Equal(t, "hello", got["prompt"])
	assert.Equal(t, false, got["stream"])
	opts, ok := got["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.8, opts["temperature"])
	assert.Equal(t, 0.95, opts["top_p"])
	assert.Equal(t, 50.0, opts["top_k"])
	assert.Equal(t, 800.0, opts["num_predict"])
	assert.Equal(t, 1.1, opts["repeat_penalty"])
}

func TestGenerateNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Generate(context.Background(), ai.Call{Model: "nope"})
	var se *ai.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Body, "model not found")
}

func TestGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL).Generate(ctx, ai.Call{Model: "gemma"})
	assert.ErrorIs(t, err, ai.ErrTimeout)
}

func TestGenerateBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Generate(context.Background(), ai.Call{Model: "gemma"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ai.ErrTimeout)
}

func TestModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"gemma:2b"},{"name":"mistral:latest"}]}`))
	}))
	defer srv.Close()

	models, err := NewClient(srv.URL).Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemma:2b", "mistral:latest"}, models)
}
