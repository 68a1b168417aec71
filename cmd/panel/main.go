package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/panelhq/panel/internal/ai"
	"github.com/panelhq/panel/internal/ai/deepseek"
	"github.com/panelhq/panel/internal/ai/ollama"
	"github.com/panelhq/panel/internal/ai/openai"
	"github.com/panelhq/panel/internal/chat"
	"github.com/panelhq/panel/internal/config"
	"github.com/panelhq/panel/internal/health"
	"github.com/panelhq/panel/internal/interp"
	"github.com/panelhq/panel/internal/server"
	"github.com/panelhq/panel/internal/tools"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Panel - HTTP gateway for LLM chat

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 5001 or PORT env var)

Environment Variables:
  HOST                   Interface to bind (default: 0.0.0.0)
  PORT                   Port to listen on (default: 5001)
  USE_LOCAL_MODEL        "true" selects the local Ollama backend
  PROVIDER               Hosted provider: "openai" or "deepseek" (default: openai)
  MODEL_NAME             Hosted model id (default: gpt-4o)
  CONTEXT_WINDOW         Hosted context window (default: 10000)
  MAX_TOKENS             Hosted max tokens (default: 4096)
  OPENAI_API_KEY         OpenAI API key (required for the openai provider)
  DEEPSEEK_API_KEY       Deepseek API key (required for the deepseek provider)
  LOCAL_MODEL_NAME       Local model (default: ollama/llama3.1)
  LOCAL_API_BASE         Local backend URL (default: http://localhost:11434)
  LOCAL_CONTEXT_WINDOW   Local context window (default: 4000)
  LOCAL_MAX_TOKENS       Local max tokens (default: 3000)
  AUTO_RUN               "true" runs generated actions without confirmation
  VERBOSE                "true" enables verbose client settings
  GITHUB_TOKEN           Token for tool search (optional)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Panel %s\n", version)
		return
	}

	// .env is optional; real environment wins over file values.
	_ = godotenv.Load()

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	srvCfg := config.ServerFromEnv()
	if *portFlag != "" {
		srvCfg.Port = *portFlag
	}

	// Provider registry for the listing endpoints, built from environment
	// defaults. The active completion client is built separately from the
	// resolved ModelConfig.
	registry := ai.NewRegistry(
		openai.New(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_API_BASE")),
		ollama.New(os.Getenv("LOCAL_API_BASE")),
		deepseek.New(os.Getenv("DEEPSEEK_API_KEY"), os.Getenv("DEEPSEEK_API_BASE")),
	)

	runtime := interp.NewRuntime(interp.NewConfigurator())
	if err := runtime.Init(context.Background()); err != nil {
		// Served traffic reports unhealthy until configuration is fixed;
		// the process stays up so /health can say why.
		zerologlog.Error().Err(err).Msg("initial configuration failed")
	} else if client, err := runtime.Client(context.Background()); err == nil {
		cfg := client.Config()
		zerologlog.Info().Str("provider", cfg.Provider).Str("model", cfg.Model).Bool("offline", cfg.Offline).Msg("interpreter configured")
	}

	finder := tools.NewGitHubFinder(os.Getenv("GITHUB_TOKEN"))
	srv := server.New(
		chat.NewService(runtime),
		health.NewService(runtime),
		runtime,
		registry,
		tools.NewManager(finder),
		finder,
	)

	zerologlog.Info().Str("addr", srvCfg.Addr()).Msg("listening")
	if err := srv.Run(srvCfg.Addr()); err != nil {
		zerologlog.Fatal().Err(err).Msg("server stopped")
	}
}
