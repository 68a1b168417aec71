package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/panelhq/panel/internal/ai"
)

// completionTimeout bounds the blocking completion call. LLM responses can
// legitimately take a while; metadata calls get a much shorter budget.
const (
	completionTimeout = 120 * time.Second
	metadataTimeout   = 10 * time.Second
)

type Client struct {
	APIKey  string
	BaseURL string
	http    *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: completionTimeout},
	}
}

func (c *Client) ID() string          { return "openai" }
func (c *Client) DisplayName() string { return "OpenAI" }
func (c *Client) Offline() bool       { return false }

// Validate is a no-op: hosted credentials are only checked by the API itself,
// so validation happens lazily on the first completion.
func (c *Client) Validate(ctx context.Context) error { return nil }

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing OpenAI API key")
	}
	payload := map[string]any{
		"model": req.Model,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	b, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("openai status %d", resp.StatusCode)
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// defaultModels is the catalog served when the /models endpoint is
// unreachable or the key lacks list permission.
var defaultModels = []ai.Model{
	{ID: "gpt-4o", Name: "GPT-4o", Family: "GPT-4"},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", Family: "GPT-4"},
	{ID: "gpt-4", Name: "GPT-4", Family: "GPT-4"},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Family: "GPT-3.5"},
}

func (c *Client) ListModels(ctx context.Context) ([]ai.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/models", nil)
	if err != nil {
		return defaultModels, nil
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return defaultModels, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return defaultModels, nil
	}
	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return defaultModels, nil
	}

	var models []ai.Model
	for _, m := range out.Data {
		if !strings.Contains(strings.ToLower(m.ID), "gpt") {
			continue
		}
		family := "Other GPT"
		switch {
		case strings.Contains(m.ID, "gpt-4"):
			family = "GPT-4"
		case strings.Contains(m.ID, "gpt-3.5"):
			family = "GPT-3.5"
		}
		models = append(models, ai.Model{
			ID:     m.ID,
			Name:   strings.Replace(m.ID, "gpt-", "GPT-", 1),
			Family: family,
		})
	}
	if len(models) == 0 {
		return defaultModels, nil
	}
	sort.Slice(models, func(i, j int) bool {
		ri, rj := familyRank(models[i].Family), familyRank(models[j].Family)
		if ri != rj {
			return ri < rj
		}
		return models[i].Name < models[j].Name
	})
	return models, nil
}

func familyRank(f string) int {
	switch f {
	case "GPT-4":
		return 0
	case "GPT-3.5":
		return 1
	default:
		return 2
	}
}
