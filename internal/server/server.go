// Package server exposes the HTTP API: auth, content management, subtitle
// ingestion and the study endpoints.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/legendas/internal/ai"
	"github.com/example/legendas/internal/database"
	"github.com/example/legendas/internal/scraper"
	"github.com/example/legendas/internal/study"
)

// Server wires the HTTP routes to the application services.
type Server struct {
	router    *gin.Engine
	study     *study.Service
	extractor *ai.Extractor
	scraper   *scraper.Scraper
	log       *zap.SugaredLogger

	users       *database.UserRepository
	shows       *database.ShowRepository
	episodes    *database.EpisodeRepository
	extractions *database.ExtractionRepository
	phrases     *database.PhraseRepository
	sessions    *database.StudySessionRepository

	jwtSecret []byte
	httpSrv   *http.Server
}

// New builds the server and registers all routes. The extractor may be nil
// when no OpenAI key is configured; extraction endpoints then return 503.
func New(studySvc *study.Service, extractor *ai.Extractor, log *zap.SugaredLogger) *Server {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Warnw("JWT_SECRET not set, using insecure development secret")
	}

	if os.Getenv("APP_MODE") == "prod" || os.Getenv("APP_MODE") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:      gin.New(),
		study:       studySvc,
		extractor:   extractor,
		scraper:     scraper.New(),
		log:         log,
		users:       database.NewUserRepository(),
		shows:       database.NewShowRepository(),
		episodes:    database.NewEpisodeRepository(),
		extractions: database.NewExtractionRepository(),
		phrases:     database.NewPhraseRepository(),
		sessions:    database.NewStudySessionRepository(),
		jwtSecret:   []byte(secret),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	s.router.Use(cors.New(corsCfg))

	api := s.router.Group("/api/v1")

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	// Study endpoints work for guests too; the optional middleware resolves
	// the caller to a user id or leaves them as guest.
	studyGroup := api.Group("/study", s.optionalAuth())
	{
		studyGroup.GET("/episodes/:id/cards", s.getDueCards)
		studyGroup.POST("/responses", s.postResponse)
		studyGroup.POST("/sessions", s.createSession)
		studyGroup.PATCH("/sessions/:id", s.updateSession)
		studyGroup.GET("/sessions/:id", s.getSession)
		studyGroup.GET("/stats", s.getStats)
	}

	authed := api.Group("", s.requireAuth())
	{
		authed.GET("/me", s.currentUser)
		authed.POST("/me/telegram", s.linkTelegram)
		authed.GET("/study/sessions", s.listSessions)
	}

	// Public catalogue reads.
	api.GET("/shows", s.listShows)
	api.GET("/shows/:id/episodes", s.listEpisodes)
	api.GET("/episodes/:id", s.getEpisode)
	api.GET("/episodes/:id/phrases", s.listPhrases)
	api.GET("/episodes/:id/phrases/export", s.exportPhrases)

	// Content management is admin only.
	admin := api.Group("", s.requireAuth(), s.requireAdmin())
	{
		admin.POST("/shows", s.createShow)
		admin.PUT("/shows/:id", s.updateShow)
		admin.DELETE("/shows/:id", s.deleteShow)
		admin.POST("/episodes", s.createEpisode)
		admin.PUT("/episodes/:id", s.updateEpisode)
		admin.DELETE("/episodes/:id", s.deleteEpisode)
		admin.POST("/episodes/:id/subtitles", s.uploadSubtitles)
		admin.POST("/episodes/:id/scrape", s.scrapeSubtitles)
		admin.GET("/episodes/:id/extractions", s.listExtractions)
		admin.DELETE("/phrases/:id", s.deletePhrase)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Infow("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves HTTP on addr until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.log.Infow("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
