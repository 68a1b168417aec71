// Package chat forwards user prompts to the configured completion client.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/panelhq/panel/internal/interp"
)

// ErrValidation marks user-correctable input failures (400-class).
var ErrValidation = errors.New("prompt must not be empty")

// UpstreamError wraps a provider or network failure. The detailed cause is
// for server-side logs; handlers surface a generic message.
type UpstreamError struct {
	Cause error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream failure: %v", e.Cause) }
func (e *UpstreamError) Unwrap() error { return e.Cause }

// Service sends prompts through the process-wide interpreter client.
type Service struct {
	rt *interp.Runtime
}

func NewService(rt *interp.Runtime) *Service {
	return &Service{rt: rt}
}

// Send forwards prompt to the active client and returns its reply unmodified.
// One attempt per call: completions are expensive and not idempotent.
func (s *Service) Send(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrValidation
	}

	client, err := s.rt.Client(ctx)
	if err != nil {
		return "", &UpstreamError{Cause: err}
	}

	reply, err := client.Chat(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("model", client.Config().Model).Msg("completion failed")
		return "", &UpstreamError{Cause: err}
	}
	return reply, nil
}
