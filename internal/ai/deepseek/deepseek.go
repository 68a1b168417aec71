package deepseek

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
		baseURL = "https://api.deepseek.com/v1"
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: completionTimeout},
	}
}

func (c *Client) ID() string          { return "deepseek" }
func (c *Client) DisplayName() string { return "Deepseek" }
func (c *Client) Offline() bool       { return false }

func (c *Client) Validate(ctx context.Context) error { return nil }

func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("missing Deepseek API key")
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
		return "", fmt.Errorf("deepseek status %d", resp.StatusCode)
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

var defaultModels = []ai.Model{
	{ID: "deepseek-chat", Name: "Deepseek Chat", Family: "Deepseek Chat"},
	{ID: "deepseek-coder", Name: "Deepseek Coder", Family: "Deepseek Coder"},
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
		family := "Deepseek Chat"
		if strings.Contains(strings.ToLower(m.ID), "coder") {
			family = "Deepseek Coder"
		}
		models = append(models, ai.Model{
			ID:     m.ID,
			Name:   titleCase(strings.Replace(m.ID, "deepseek-", "Deepseek ", 1)),
			Family: family,
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

func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
