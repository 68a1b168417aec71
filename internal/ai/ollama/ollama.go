package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/panelhq/panel/internal/ai"
)

const (
	completionTimeout = 120 * time.Second
	metadataTimeout   = 10 * time.Second
)

type Client struct {
	Host string
	http *http.Client
}

func New(host string) *Client {
	if host == "" {
		host = "http://localhost:11434"
	}
	return &Client{Host: strings.TrimRight(host, "/"), http: &http.Client{Timeout: completionTimeout}}
}

func (c *Client) ID() string          { return "ollama" }
func (c *Client) DisplayName() string { return "Ollama" }
func (c *Client) Offline() bool       { return true }

// Validate pings the tags endpoint to confirm the local backend is reachable.
func (c *Client) Validate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.Host+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", c.Host, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	payload := map[string]any{
		"model": stripPrefix(req.Model),
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
		"stream": false,
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.Host+"/api/chat", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	var out struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Message.Content), nil
}

var defaultModels = []ai.Model{
	{ID: "llama3", Name: "Llama 3", Family: "Llama"},
	{ID: "llama2", Name: "Llama 2", Family: "Llama"},
	{ID: "mistral", Name: "Mistral", Family: "Mistral"},
	{ID: "mixtral", Name: "Mixtral", Family: "Mistral"},
	{ID: "codellama", Name: "Code Llama", Family: "Llama"},
}

func (c *Client) ListModels(ctx context.Context) ([]ai.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.Host+"/api/tags", nil)
	if err != nil {
		return defaultModels, nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return defaultModels, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return defaultModels, nil
	}
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return defaultModels, nil
	}

	var models []ai.Model
	for _, m := range out.Models {
		models = append(models, ai.Model{
			ID:     m.Name,
			Name:   titleCase(m.Name),
			Family: family(m.Name),
		})
	}
	if len(models) == 0 {
		return defaultModels, nil
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].Family != models[j].Family {
			return models[i].Family < models[j].Family
		}
		return models[i].Name < models[j].Name
	})
	return models, nil
}

// stripPrefix removes the "ollama/" routing prefix the config layer uses so
// the backend sees a bare model name.
func stripPrefix(model string) string {
	return strings.TrimPrefix(model, "ollama/")
}

func family(id string) string {
	lower := strings.ToLower(id)
	switch {
	case strings.Contains(lower, "llama"):
		return "Llama"
	case strings.Contains(lower, "mistral"), strings.Contains(lower, "mixtral"):
		return "Mistral"
	case strings.Contains(lower, "gemma"):
		return "Gemma"
	default:
		return "Other"
	}
}

func titleCase(id string) string {
	words := strings.Split(strings.ReplaceAll(id, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
