package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Repo is a GitHub repository that may host a tool.
type Repo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	CloneURL    string   `json:"clone_url"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	UpdatedAt   string   `json:"updated_at"`
	Topics      []string `json:"topics"`
	HasManifest bool     `json:"has_manifest"`
}

// Manifest is the optional tool-manifest.json at a repository root.
type Manifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Functions   []string `json:"functions"`
}

const manifestPath = "tool-manifest.json"

// GitHubFinder searches GitHub for tool repositories. Search and metadata
// calls go through a retrying client; GitHub rate-limits and flakes in ways
// a single completion call never should, so retries are fine here.
type GitHubFinder struct {
	Token   string
	APIBase string
	http    *retryablehttp.Client
}

func NewGitHubFinder(token string) *GitHubFinder {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.HTTPClient.Timeout = 15 * time.Second
	c.Logger = nil
	return &GitHubFinder{Token: token, APIBase: "https://api.github.com", http: c}
}

// Search queries the repository search API, stars-descending, optionally
// filtered by topics, and marks results that carry a tool manifest.
func (f *GitHubFinder) Search(ctx context.Context, query string, topics []string, max int) ([]Repo, error) {
	if max <= 0 {
		max = 10
	}
	terms := []string{query}
	for _, t := range topics {
		terms = append(terms, "topic:"+t)
	}

	q := url.Values{}
	q.Set("q", strings.Join(terms, " "))
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", fmt.Sprint(max))

	var out struct {
		Items []struct {
			Name            string   `json:"name"`
			FullName        string   `json:"full_name"`
			Description     string   `json:"description"`
			HTMLURL         string   `json:"html_url"`
			CloneURL        string   `json:"clone_url"`
			StargazersCount int      `json:"stargazers_count"`
			ForksCount      int      `json:"forks_count"`
			UpdatedAt       string   `json:"updated_at"`
			Topics          []string `json:"topics"`
		} `json:"items"`
	}
	if err := f.getJSON(ctx, "/search/repositories?"+q.Encode(), &out); err != nil {
		return nil, err
	}

	repos := make([]Repo, 0, len(out.Items))
	for _, it := range out.Items {
		repos = append(repos, Repo{
			Name:        it.Name,
			FullName:    it.FullName,
			Description: it.Description,
			URL:         it.HTMLURL,
			CloneURL:    it.CloneURL,
			Stars:       it.StargazersCount,
			Forks:       it.ForksCount,
			UpdatedAt:   it.UpdatedAt,
			Topics:      it.Topics,
			HasManifest: f.hasFile(ctx, it.FullName, manifestPath),
		})
	}
	return repos, nil
}

// RepoInfo fetches metadata for one repository by full name ("owner/repo").
func (f *GitHubFinder) RepoInfo(ctx context.Context, fullName string) (Repo, error) {
	var out struct {
		Name            string   `json:"name"`
		FullName        string   `json:"full_name"`
		Description     string   `json:"description"`
		HTMLURL         string   `json:"html_url"`
		CloneURL        string   `json:"clone_url"`
		StargazersCount int      `json:"stargazers_count"`
		ForksCount      int      `json:"forks_count"`
		UpdatedAt       string   `json:"updated_at"`
		Topics          []string `json:"topics"`
	}
	if err := f.getJSON(ctx, "/repos/"+fullName, &out); err != nil {
		return Repo{}, err
	}
	return Repo{
		Name:        out.Name,
		FullName:    out.FullName,
		Description: out.Description,
		URL:         out.HTMLURL,
		CloneURL:    out.CloneURL,
		Stars:       out.StargazersCount,
		Forks:       out.ForksCount,
		UpdatedAt:   out.UpdatedAt,
		Topics:      out.Topics,
		HasManifest: f.hasFile(ctx, out.FullName, manifestPath),
	}, nil
}

// FetchManifest returns the repository's tool manifest, or nil when absent.
func (f *GitHubFinder) FetchManifest(ctx context.Context, fullName string) (*Manifest, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", f.APIBase+"/repos/"+fullName+"/contents/"+manifestPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3.raw")
	f.auth(req.Header)
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github status %d for %s manifest", resp.StatusCode, fullName)
	}
	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", fullName, err)
	}
	return &m, nil
}

func (f *GitHubFinder) getJSON(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", f.APIBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	f.auth(req.Header)
	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (f *GitHubFinder) hasFile(ctx context.Context, fullName, path string) bool {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", f.APIBase+"/repos/"+fullName+"/contents/"+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	f.auth(req.Header)
	resp, err := f.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (f *GitHubFinder) auth(h http.Header) {
	if f.Token != "" {
		h.Set("Authorization", "token "+f.Token)
	}
}
