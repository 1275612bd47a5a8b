package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kotobalab/tsuyaku/internal/config"
	"github.com/kotobalab/tsuyaku/internal/repository"
	"github.com/kotobalab/tsuyaku/internal/session"
	"github.com/kotobalab/tsuyaku/internal/speechtoken"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg      *config.Config
	service  *session.Service
	tokens   speechtoken.Issuer
	repo     repository.Repository
	registry *prometheus.Registry
}

func NewServer(cfg *config.Config, service *session.Service, tokens speechtoken.Issuer, repo repository.Repository, registry *prometheus.Registry) *Server {
	return &Server{
		cfg:      cfg,
		service:  service,
		tokens:   tokens,
		repo:     repo,
		registry: registry,
	}
}

func (s *Server) Router() *gin.Engine {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/languages", s.GetLanguages)
	api.GET("/scenarios", s.GetScenarios)

	authed := api.Group("", s.Identify)
	authed.GET("/speech/token", s.GetSpeechToken)
	authed.POST("/sessions", s.CreateSession)
	authed.GET("/sessions", s.ListSessions)
	authed.GET("/sessions/:id", s.GetSession)
	authed.POST("/sessions/:id/utterances", s.SubmitUtterance)
	authed.GET("/sessions/:id/transcripts", s.ListTranscripts)
	authed.POST("/sessions/:id/end", s.EndSession)
	authed.POST("/sessions/:id/summary", s.GenerateSummary)
	authed.GET("/sessions/:id/summary", s.GetSummary)
	authed.POST("/sessions/:id/capture/start", s.StartCapture)
	authed.POST("/sessions/:id/capture/audio", s.WriteCaptureAudio)
	authed.POST("/sessions/:id/capture/stop", s.StopCapture)

	return r
}
