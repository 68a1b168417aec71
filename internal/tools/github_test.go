package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFinder(t *testing.T, handler http.Handler) *GitHubFinder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f := NewGitHubFinder("")
	f.APIBase = srv.URL
	return f
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mcp server topic:mcp", r.URL.Query().Get("q"))
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"name":             "mcp-tools",
					"full_name":        "acme/mcp-tools",
					"description":      "assorted MCP servers",
					"html_url":         "https://github.com/acme/mcp-tools",
					"stargazers_count": 42,
					"topics":           []string{"mcp"},
				},
			},
		})
	})
	mux.HandleFunc("/repos/acme/mcp-tools/contents/tool-manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	f := newTestFinder(t, mux)
	repos, err := f.Search(context.Background(), "mcp server", []string{"mcp"}, 10)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "acme/mcp-tools", repos[0].FullName)
	assert.Equal(t, 42, repos[0].Stars)
	assert.True(t, repos[0].HasManifest)
}

func TestSearchErrorStatus(t *testing.T) {
	f := newTestFinder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))

	_, err := f.Search(context.Background(), "anything", nil, 5)
	assert.Error(t, err)
}

func TestRepoInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tool", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":      "tool",
			"full_name": "acme/tool",
			"html_url":  "https://github.com/acme/tool",
		})
	})
	mux.HandleFunc("/repos/acme/tool/contents/tool-manifest.json", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	f := newTestFinder(t, mux)
	repo, err := f.RepoInfo(context.Background(), "acme/tool")
	require.NoError(t, err)
	assert.Equal(t, "acme/tool", repo.FullName)
	assert.False(t, repo.HasManifest)
}

func TestFetchManifest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/tool/contents/tool-manifest.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3.raw", r.Header.Get("Accept"))
		_ = json.NewEncoder(w).Encode(Manifest{Name: "tool", Version: "1.0.0"})
	})

	f := newTestFinder(t, mux)
	m, err := f.FetchManifest(context.Background(), "acme/tool")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "1.0.0", m.Version)
}

func TestFetchManifestAbsent(t *testing.T) {
	f := newTestFinder(t, http.NotFoundHandler())

	m, err := f.FetchManifest(context.Background(), "acme/tool")
	require.NoError(t, err)
	assert.Nil(t, m)
}
