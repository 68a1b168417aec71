// Package health recomputes the configuration pass and reports whether the
// active backend would come up cleanly.
package health

import (
	"context"

	"github.com/panelhq/panel/internal/config"
	"github.com/panelhq/panel/internal/interp"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Report is the two-state health outcome, recomputed fresh on each check.
type Report struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Offline  bool   `json:"offline"`
	Provider string `json:"provider"`
	Reason   string `json:"reason,omitempty"`
}

type Service struct {
	rt *interp.Runtime
}

func NewService(rt *interp.Runtime) *Service {
	return &Service{rt: rt}
}

// Check re-runs resolve and configure with the currently active overrides.
// Configuration failures become an unhealthy report, never an error. The
// transient client built for validation is discarded; the active client is
// untouched.
func (s *Service) Check(ctx context.Context) Report {
	cfg, err := config.ResolveWith(s.rt.Overrides())
	if err != nil {
		return Report{Status: StatusUnhealthy, Reason: err.Error()}
	}
	if _, err := s.rt.Configurator().Configure(ctx, cfg); err != nil {
		return Report{
			Status:   StatusUnhealthy,
			Model:    cfg.Model,
			Offline:  cfg.Offline,
			Provider: cfg.Provider,
			Reason:   err.Error(),
		}
	}
	return Report{
		Status:   StatusHealthy,
		Model:    cfg.Model,
		Offline:  cfg.Offline,
		Provider: cfg.Provider,
	}
}
