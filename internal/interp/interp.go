// Package interp applies a resolved ModelConfig to a completion client and
// owns the process-wide client lifecycle: one client is built at boot and
// replaced wholesale on configuration reload, never mutated in place.
package interp

import (
	"context"
	"sync"

	"github.com/panelhq/panel/internal/ai"
	"github.com/panelhq/panel/internal/ai/deepseek"
	"github.com/panelhq/panel/internal/ai/ollama"
	"github.com/panelhq/panel/internal/ai/openai"
	"github.com/panelhq/panel/internal/config"
)

// Client is a completion client bound to one ModelConfig.
type Client struct {
	cfg      config.ModelConfig
	provider ai.Provider
}

func (c *Client) Config() config.ModelConfig { return c.cfg }

// Chat performs a single blocking completion call for prompt.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	return c.provider.Complete(ctx, ai.Request{
		Model:     c.cfg.Model,
		Prompt:    prompt,
		MaxTokens: c.cfg.MaxTokens,
	})
}

// Factory builds a provider client for a ModelConfig. Swappable in tests.
type Factory func(cfg config.ModelConfig) (ai.Provider, error)

func defaultFactory(cfg config.ModelConfig) (ai.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.New(cfg.APIBase), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.APIKey, cfg.APIBase), nil
	case config.ProviderDeepseek:
		return deepseek.New(cfg.APIKey, cfg.APIBase), nil
	default:
		return nil, &config.Error{Key: "PROVIDER", Reason: "unknown provider " + cfg.Provider}
	}
}

// Configurator maps a ModelConfig onto a ready-to-use Client.
type Configurator struct {
	factory Factory
}

func NewConfigurator() *Configurator {
	return &Configurator{factory: defaultFactory}
}

// NewConfiguratorWithFactory lets tests substitute a stub provider.
func NewConfiguratorWithFactory(f Factory) *Configurator {
	return &Configurator{factory: f}
}

// Configure builds a Client for cfg. For the offline path it pings the local
// backend's metadata endpoint; an unreachable backend is a configuration
// failure. Hosted providers are validated lazily on the first real call.
func (f *Configurator) Configure(ctx context.Context, cfg config.ModelConfig) (*Client, error) {
	p, err := f.factory(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Offline {
		if err := p.Validate(ctx); err != nil {
			return nil, &config.Error{Key: "LOCAL_API_BASE", Reason: err.Error()}
		}
	}
	return &Client{cfg: cfg, provider: p}, nil
}

// Runtime is the process-wide client holder. A single writer swaps the
// client reference; readers take the reference under RLock and use it for
// the duration of one request.
type Runtime struct {
	mu        sync.RWMutex
	conf      *Configurator
	overrides config.Overrides
	current   *Client
}

func NewRuntime(conf *Configurator) *Runtime {
	return &Runtime{conf: conf}
}

// Init resolves the environment and builds the initial client.
func (r *Runtime) Init(ctx context.Context) error {
	_, err := r.Reset(ctx, config.Overrides{})
	return err
}

// Reset re-resolves configuration with the given overrides and atomically
// replaces the active client. On failure the previous client stays active.
func (r *Runtime) Reset(ctx context.Context, o config.Overrides) (*Client, error) {
	cfg, err := config.ResolveWith(o)
	if err != nil {
		return nil, err
	}
	client, err := r.conf.Configure(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.current = client
	r.overrides = o
	r.mu.Unlock()
	return client, nil
}

// Client returns the active client, building one on first use if boot-time
// initialization was skipped or failed.
func (r *Runtime) Client(ctx context.Context) (*Client, error) {
	r.mu.RLock()
	c := r.current
	r.mu.RUnlock()
	if c != nil {
		return c, nil
	}
	return r.Reset(ctx, r.Overrides())
}

// Overrides returns the overrides applied by the last successful Reset.
func (r *Runtime) Overrides() config.Overrides {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.overrides
}

// Configurator exposes the configurator for health checks, which build a
// transient client rather than touching the active one.
func (r *Runtime) Configurator() *Configurator { return r.conf }
