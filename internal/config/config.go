// Package config resolves the model and server configuration from the
// process environment. Configuration is read once per resolve pass and the
// resulting ModelConfig is never mutated; reconfiguration produces a new
// value that replaces the old one atomically.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider identifiers. Ollama is the offline/local backend, the rest are
// hosted providers requiring a credential.
const (
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
	ProviderDeepseek = "deepseek"
)

// Error reports a missing or malformed configuration value.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// ModelConfig describes the active model backend. Immutable once resolved.
type ModelConfig struct {
	Provider      string
	Offline       bool
	Model         string
	APIBase       string
	APIKey        string
	ContextWindow int
	MaxTokens     int
	AutoRun       bool
	Verbose       bool
}

// Overrides replaces selected fields of the environment snapshot. Used by the
// provider-update endpoint instead of mutating the process environment.
type Overrides struct {
	Provider string
	Model    string
}

// Resolve builds a ModelConfig from the current environment.
func Resolve() (ModelConfig, error) {
	return ResolveWith(Overrides{})
}

// ResolveWith builds a ModelConfig from the current environment with the
// given overrides applied on top.
func ResolveWith(o Overrides) (ModelConfig, error) {
	provider := ""
	offline := false
	switch {
	case o.Provider != "":
		provider = o.Provider
		offline = provider == ProviderOllama
	case parseBool(os.Getenv("USE_LOCAL_MODEL")):
		provider = ProviderOllama
		offline = true
	default:
		provider = getenv("PROVIDER", ProviderOpenAI)
	}

	if offline {
		return resolveLocal(o)
	}
	return resolveHosted(provider, o)
}

func resolveLocal(o Overrides) (ModelConfig, error) {
	cfg := ModelConfig{
		Provider: ProviderOllama,
		Offline:  true,
		Model:    getenv("LOCAL_MODEL_NAME", "ollama/llama3.1"),
		APIBase:  getenv("LOCAL_API_BASE", "http://localhost:11434"),
		AutoRun:  parseBool(os.Getenv("AUTO_RUN")),
		Verbose:  parseBool(os.Getenv("VERBOSE")),
	}
	if o.Model != "" {
		cfg.Model = o.Model
	}
	if cfg.APIBase == "" {
		return ModelConfig{}, &Error{Key: "LOCAL_API_BASE", Reason: "must not be empty for a local model"}
	}

	var err error
	if cfg.ContextWindow, err = parseInt("LOCAL_CONTEXT_WINDOW", 4000); err != nil {
		return ModelConfig{}, err
	}
	if cfg.MaxTokens, err = parseInt("LOCAL_MAX_TOKENS", 3000); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}

func resolveHosted(provider string, o Overrides) (ModelConfig, error) {
	cfg := ModelConfig{
		Provider: provider,
		Offline:  false,
		AutoRun:  parseBool(os.Getenv("AUTO_RUN")),
		Verbose:  parseBool(os.Getenv("VERBOSE")),
	}

	switch provider {
	case ProviderOpenAI:
		cfg.Model = getenv("MODEL_NAME", "gpt-4o")
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.APIBase = os.Getenv("OPENAI_API_BASE")
		if cfg.APIKey == "" {
			return ModelConfig{}, &Error{Key: "OPENAI_API_KEY", Reason: "required for the openai provider"}
		}
	case ProviderDeepseek:
		cfg.Model = getenv("MODEL_NAME", "deepseek-chat")
		cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")
		cfg.APIBase = getenv("DEEPSEEK_API_BASE", "https://api.deepseek.com/v1")
		if cfg.APIKey == "" {
			return ModelConfig{}, &Error{Key: "DEEPSEEK_API_KEY", Reason: "required for the deepseek provider"}
		}
	default:
		return ModelConfig{}, &Error{Key: "PROVIDER", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}

	if o.Model != "" {
		cfg.Model = o.Model
	}

	var err error
	if cfg.ContextWindow, err = parseInt("CONTEXT_WINDOW", 10000); err != nil {
		return ModelConfig{}, err
	}
	if cfg.MaxTokens, err = parseInt("MAX_TOKENS", 4096); err != nil {
		return ModelConfig{}, err
	}
	return cfg, nil
}

// Server holds the HTTP listener configuration.
type Server struct {
	Host string
	Port string
}

func ServerFromEnv() Server {
	return Server{
		Host: getenv("HOST", "0.0.0.0"),
		Port: getenv("PORT", "5001"),
	}
}

func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return v
	}
	return def
}

func parseBool(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func parseInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("not an integer: %q", v)}
	}
	if n <= 0 {
		return 0, &Error{Key: key, Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	return n, nil
}
