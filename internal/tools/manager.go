// Package tools keeps the registry of discovered tools and searches GitHub
// for new ones.
package tools

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Tool is a registered tool's metadata.
type Tool struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	RepoURL     string   `json:"repo_url,omitempty"`
	Functions   []string `json:"functions"`
}

// Finder abstracts the GitHub lookups the manager needs. Satisfied by
// *GitHubFinder; tests substitute a stub.
type Finder interface {
	RepoInfo(ctx context.Context, fullName string) (Repo, error)
	FetchManifest(ctx context.Context, fullName string) (*Manifest, error)
}

// Manager is the in-memory tool registry.
type Manager struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	finder Finder
}

func NewManager(finder Finder) *Manager {
	return &Manager{tools: make(map[string]Tool), finder: finder}
}

// List returns registered tools sorted by name.
func (m *Manager) List() []Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tool, 0, len(m.tools))
	for _, t := range m.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AddFromGitHub verifies the repository exists, reads its manifest when one
// is present, and registers the tool.
func (m *Manager) AddFromGitHub(ctx context.Context, repoURL string) (Tool, error) {
	fullName, err := parseRepoURL(repoURL)
	if err != nil {
		return Tool{}, err
	}

	repo, err := m.finder.RepoInfo(ctx, fullName)
	if err != nil {
		return Tool{}, fmt.Errorf("looking up %s: %w", fullName, err)
	}

	tool := Tool{
		Name:        repo.Name,
		Description: repo.Description,
		Version:     "0.1.0",
		RepoURL:     repo.URL,
	}
	if repo.HasManifest {
		manifest, err := m.finder.FetchManifest(ctx, fullName)
		if err != nil {
			return Tool{}, err
		}
		if manifest != nil {
			if manifest.Name != "" {
				tool.Name = manifest.Name
			}
			if manifest.Description != "" {
				tool.Description = manifest.Description
			}
			if manifest.Version != "" {
				tool.Version = manifest.Version
			}
			tool.Functions = manifest.Functions
		}
	}

	m.mu.Lock()
	m.tools[tool.Name] = tool
	m.mu.Unlock()
	return tool, nil
}

// parseRepoURL extracts "owner/repo" from a GitHub URL or accepts the bare
// form directly.
func parseRepoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty repository URL")
	}
	if !strings.Contains(raw, "://") {
		parts := strings.Split(strings.Trim(raw, "/"), "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return parts[0] + "/" + parts[1], nil
		}
		return "", fmt.Errorf("not a GitHub repository reference: %s", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL: %w", err)
	}
	if !strings.HasSuffix(u.Host, "github.com") {
		return "", fmt.Errorf("not a GitHub URL: %s", raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("URL does not name a repository: %s", raw)
	}
	return parts[0] + "/" + strings.TrimSuffix(parts[1], ".git"), nil
}
