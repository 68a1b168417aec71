package interp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelhq/panel/internal/ai"
	"github.com/panelhq/panel/internal/config"
)

type stubProvider struct {
	id          string
	offline     bool
	validateErr error
	reply       string
}

func (s *stubProvider) ID() string          { return s.id }
func (s *stubProvider) DisplayName() string { return s.id }
func (s *stubProvider) Offline() bool       { return s.offline }
func (s *stubProvider) Complete(ctx context.Context, req ai.Request) (string, error) {
	if s.reply != "" {
		return s.reply, nil
	}
	return req.Prompt, nil
}
func (s *stubProvider) ListModels(ctx context.Context) ([]ai.Model, error) { return nil, nil }
func (s *stubProvider) Validate(ctx context.Context) error                 { return s.validateErr }

func stubFactory(p ai.Provider) Factory {
	return func(cfg config.ModelConfig) (ai.Provider, error) { return p, nil }
}

func hostedEnv(t *testing.T) {
	t.Helper()
	t.Setenv("USE_LOCAL_MODEL", "false")
	t.Setenv("PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestConfigureHosted(t *testing.T) {
	hostedEnv(t)
	cfg, err := config.Resolve()
	require.NoError(t, err)

	conf := NewConfiguratorWithFactory(stubFactory(&stubProvider{id: "openai"}))
	client, err := conf.Configure(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.Config().Model)
}

func TestConfigureOfflineValidates(t *testing.T) {
	t.Setenv("USE_LOCAL_MODEL", "true")
	cfg, err := config.Resolve()
	require.NoError(t, err)

	conf := NewConfiguratorWithFactory(stubFactory(&stubProvider{
		id: "ollama", offline: true, validateErr: errors.New("connection refused"),
	}))
	_, err = conf.Configure(context.Background(), cfg)
	var cerr *config.Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Reason, "connection refused")
}

func TestRuntimeInitAndChat(t *testing.T) {
	hostedEnv(t)
	rt := NewRuntime(NewConfiguratorWithFactory(stubFactory(&stubProvider{id: "openai", reply: "hi"})))
	require.NoError(t, rt.Init(context.Background()))

	client, err := rt.Client(context.Background())
	require.NoError(t, err)
	reply, err := client.Chat(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi", reply)
}

func TestRuntimeResetSwapsClient(t *testing.T) {
	hostedEnv(t)
	rt := NewRuntime(NewConfiguratorWithFactory(stubFactory(&stubProvider{id: "openai"})))
	require.NoError(t, rt.Init(context.Background()))

	client, err := rt.Reset(context.Background(), config.Overrides{Model: "gpt-4-turbo"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4-turbo", client.Config().Model)
	assert.Equal(t, "gpt-4-turbo", rt.Overrides().Model)

	current, err := rt.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, client, current)
}

func TestRuntimeResetKeepsOldClientOnFailure(t *testing.T) {
	hostedEnv(t)
	rt := NewRuntime(NewConfiguratorWithFactory(stubFactory(&stubProvider{id: "openai"})))
	require.NoError(t, rt.Init(context.Background()))
	before, err := rt.Client(context.Background())
	require.NoError(t, err)

	_, err = rt.Reset(context.Background(), config.Overrides{Provider: "skynet"})
	require.Error(t, err)

	after, err := rt.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRuntimeLazyInit(t *testing.T) {
	hostedEnv(t)
	rt := NewRuntime(NewConfiguratorWithFactory(stubFactory(&stubProvider{id: "openai"})))

	client, err := rt.Client(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", client.Config().Model)
}
