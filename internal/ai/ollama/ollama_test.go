package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelhq/panel/internal/ai"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		var payload struct {
			Model  string `json:"model"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		// The routing prefix must be stripped before the backend sees it.
		assert.Equal(t, "llama3.1", payload.Model)
		assert.False(t, payload.Stream)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"content": "  hello there  "},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	reply, err := c.Complete(context.Background(), ai.Request{Model: "ollama/llama3.1", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Complete(context.Background(), ai.Request{Model: "missing", Prompt: "hi"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []any{}})
	}))
	defer srv.Close()

	assert.NoError(t, New(srv.URL).Validate(context.Background()))
}

func TestValidateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	err := New(srv.URL).Validate(context.Background())
	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]string{
				{"name": "mistral"},
				{"name": "llama3.1"},
				{"name": "gemma-2b"},
			},
		})
	}))
	defer srv.Close()

	models, err := New(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)
	// Sorted by family, then name: Gemma < Llama < Mistral.
	assert.Equal(t, "Gemma", models[0].Family)
	assert.Equal(t, "Llama", models[1].Family)
	assert.Equal(t, "Mistral", models[2].Family)
}

func TestListModelsFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	models, err := New(srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultModels, models)
}
