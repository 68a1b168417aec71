// Package server wires the HTTP surface: chat, health, configuration,
// provider/model listings, tool discovery, and the embedded web client.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/panelhq/panel/internal/ai"
	"github.com/panelhq/panel/internal/chat"
	"github.com/panelhq/panel/internal/config"
	"github.com/panelhq/panel/internal/health"
	"github.com/panelhq/panel/internal/interp"
	"github.com/panelhq/panel/internal/tools"
	"github.com/panelhq/panel/static"
)

// Searcher is the GitHub search dependency. Satisfied by *tools.GitHubFinder.
type Searcher interface {
	Search(ctx context.Context, query string, topics []string, max int) ([]tools.Repo, error)
}

type Server struct {
	chat      *chat.Service
	health    *health.Service
	runtime   *interp.Runtime
	providers *ai.Registry
	tools     *tools.Manager
	finder    Searcher
	engine    *gin.Engine
}

func New(cs *chat.Service, hs *health.Service, rt *interp.Runtime, reg *ai.Registry, tm *tools.Manager, finder Searcher) *Server {
	s := &Server{
		chat:      cs,
		health:    hs,
		runtime:   rt,
		providers: reg,
		tools:     tm,
		finder:    finder,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.POST("/chat", s.handleChat)
	r.GET("/health", s.handleHealth)
	r.GET("/config", s.handleConfig)
	r.GET("/providers", s.handleProviders)
	r.GET("/models", s.handleModels)
	r.GET("/tools", s.handleTools)
	r.GET("/tools/search", s.handleToolSearch)
	r.POST("/tools/add", s.handleToolAdd)
	r.POST("/update_provider", s.handleUpdateProvider)

	// Everything else falls through to the embedded chat client.
	r.NoRoute(func(c *gin.Context) {
		static.Handler().ServeHTTP(c.Writer, c.Request)
	})

	s.engine = r
	return s
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
		// Completion calls are slow; only bound the header read to keep
		// slow-loris clients from pinning goroutines.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv.ListenAndServe()
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := uuid.NewString()
		c.Set("request_id", reqID)
		c.Next()
		log.Info().
			Str("req", reqID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	}
}

func (s *Server) handleChat(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No prompt provided"})
		return
	}

	reply, err := s.chat.Send(c.Request.Context(), req.Prompt)
	switch {
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No prompt provided"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process prompt"})
	default:
		c.JSON(http.StatusOK, gin.H{"response": reply})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Check(c.Request.Context()))
}

func (s *Server) handleConfig(c *gin.Context) {
	client, err := s.runtime.Client(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	cfg := client.Config()
	c.JSON(http.StatusOK, gin.H{
		"model":          cfg.Model,
		"offline":        cfg.Offline,
		"provider":       cfg.Provider,
		"context_window": cfg.ContextWindow,
		"max_tokens":     cfg.MaxTokens,
		"auto_run":       cfg.AutoRun,
		"verbose":        cfg.Verbose,
	})
}

func (s *Server) handleProviders(c *gin.Context) {
	type entry struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Offline bool   `json:"offline"`
	}
	var out []entry
	for _, p := range s.providers.All() {
		out = append(out, entry{ID: p.ID(), Name: p.DisplayName(), Offline: p.Offline()})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) handleModels(c *gin.Context) {
	id := c.Query("provider")
	if id == "" {
		client, err := s.runtime.Client(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		id = client.Config().Provider
	}
	p, err := s.providers.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	models, err := p.ListModels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

func (s *Server) handleTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": s.tools.List()})
}

func (s *Server) handleToolSearch(c *gin.Context) {
	query := c.Query("query")
	var topics []string
	if t := c.Query("type"); t != "" {
		topics = []string{t}
	}
	results, err := s.finder.Search(c.Request.Context(), query, topics, 10)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("tool search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleToolAdd(c *gin.Context) {
	var req struct {
		RepoURL string `json:"repo_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RepoURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No repository URL provided"})
		return
	}
	tool, err := s.tools.AddFromGitHub(c.Request.Context(), req.RepoURL)
	if err != nil {
		log.Error().Err(err).Str("repo", req.RepoURL).Msg("adding tool failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tool": tool})
}

func (s *Server) handleUpdateProvider(c *gin.Context) {
	var req struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No provider specified"})
		return
	}
	client, err := s.runtime.Reset(c.Request.Context(), config.Overrides{Provider: req.Provider, Model: req.Model})
	if err != nil {
		log.Error().Err(err).Str("provider", req.Provider).Msg("provider update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config": gin.H{
			"provider": client.Config().Provider,
			"model":    client.Config().Model,
		},
	})
}
