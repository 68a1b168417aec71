package openai

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
		require.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var payload struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o", payload.Model)
		assert.Equal(t, 4096, payload.MaxTokens)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "pong"}},
			},
		})
	}))
	defer srv.Close()

	c := New("sk-test", srv.URL)
	reply, err := c.Complete(context.Background(), ai.Request{Model: "gpt-4o", Prompt: "ping", MaxTokens: 4096})
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

func TestCompleteMissingKey(t *testing.T) {
	c := New("", "http://localhost:0")
	_, err := c.Complete(context.Background(), ai.Request{Model: "gpt-4o", Prompt: "ping"})
	assert.Error(t, err)
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	_, err := New("sk-test", srv.URL).Complete(context.Background(), ai.Request{Model: "gpt-4o", Prompt: "ping"})
	assert.Error(t, err)
}

func TestListModelsFiltersAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{
				{"id": "whisper-1"},
				{"id": "gpt-3.5-turbo"},
				{"id": "gpt-4o"},
			},
		})
	}))
	defer srv.Close()

	models, err := New("sk-test", srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o", models[0].ID)
	assert.Equal(t, "gpt-3.5-turbo", models[1].ID)
}

func TestListModelsFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	models, err := New("sk-test", srv.URL).ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaultModels, models)
}
