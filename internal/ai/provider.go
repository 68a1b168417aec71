// Package ai defines the completion provider contract and the registry that
// maps provider ids onto concrete clients.
package ai

import (
	"context"
	"fmt"
)

// Request carries one completion call to a provider.
type Request struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// Model describes one model a provider can serve.
type Model struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Family string `json:"family"`
}

// Provider is a completion backend. Implementations are safe for concurrent
// use: they hold only immutable connection settings and a shared http.Client.
type Provider interface {
	// ID returns the registry identifier ("openai", "ollama", ...).
	ID() string
	// DisplayName returns a human-readable provider name.
	DisplayName() string
	// Offline reports whether this provider serves a locally reachable backend.
	Offline() bool
	// Complete performs a single blocking completion call.
	Complete(ctx context.Context, req Request) (string, error)
	// ListModels returns the provider's model catalog, falling back to a
	// static list when the metadata endpoint is unavailable.
	ListModels(ctx context.Context) ([]Model, error)
	// Validate checks backend reachability where that is meaningful. Hosted
	// providers return nil and are validated lazily on the first real call.
	Validate(ctx context.Context) error
}

// Registry resolves provider ids to clients. Populated once at startup.
type Registry struct {
	providers map[string]Provider
	order     []string
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.providers[p.ID()] = p
		r.order = append(r.order, p.ID())
	}
	return r
}

func (r *Registry) Get(id string) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
	return p, nil
}

// All returns providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}
