package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/storybuddy/internal"
	"codeberg.org/snonux/storybuddy/internal/session"
	"codeberg.org/snonux/storybuddy/internal/speech"
	"codeberg.org/snonux/storybuddy/internal/story"
)

// shutdownTimeout bounds graceful shutdown of open requests.
const shutdownTimeout = 10 * time.Second

// Server exposes one session over a JSON API.
type Server struct {
	session *session.Session
	log     logrus.FieldLogger
	router  *gin.Engine
}

// StateResponse is the session state plus derived control flags.
type StateResponse struct {
	session.State
	Panels          []session.Panel `json:"panels"`
	CanGenerate     bool            `json:"can_generate"`
	SettingsLocked  bool            `json:"settings_locked"`
	SpeechAvailable bool            `json:"speech_available"`
}

// LanguageResponse describes one selectable language.
type LanguageResponse struct {
	Code   session.Language `json:"code"`
	Label  string           `json:"label"`
	Locale string           `json:"locale"`
}

// New creates the server and registers its routes
func New(sess *session.Session, log logrus.FieldLogger) *Server {
	s := &Server{session: sess, log: log, router: gin.New()}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	api.GET("/state", s.handleState)
	api.GET("/models", s.handleModels)
	api.GET("/languages", s.handleLanguages)
	api.GET("/story.txt", s.handleDownload)

	api.POST("/prompt", s.handlePrompt)
	api.POST("/language", s.handleLanguage)
	api.POST("/model", s.handleModel)
	api.POST("/generate", s.handleGenerate)
	api.POST("/listen", s.handleListen)
	api.POST("/playback/toggle", s.handleToggle)
	api.POST("/playback/stop", s.handleStop)
	api.POST("/clear", s.handleClear)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": addr, "version": internal.Version}).Info("control API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down control API")
	s.session.ClearAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}

func (s *Server) state() StateResponse {
	st := s.session.Snapshot()
	return StateResponse{
		State:           st,
		Panels:          st.Illustrated(),
		CanGenerate:     st.CanGenerate(),
		SettingsLocked:  st.SettingsLocked(),
		SpeechAvailable: s.session.SpeechAvailable(),
	}
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	var genErr *story.GenerationError
	switch {
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrInputsLocked), errors.Is(err, speech.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, session.ErrBlankTopic), errors.Is(err, session.ErrUnknownLanguage), errors.Is(err, story.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoStory):
		return http.StatusNotFound
	case errors.Is(err, speech.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusBadGateway || status == http.StatusInternalServerError {
		message = story.Message(err)
	}
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Warn("request failed")
	}
	c.JSON(status, gin.H{"error": message, "state": s.state()})
}

func (s *Server) handleState(c *gin.Context) {
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": story.DefaultModel,
		"models":  story.Catalog,
	})
}

func (s *Server) handleLanguages(c *gin.Context) {
	languages := make([]LanguageResponse, 0, len(session.Languages()))
	for _, l := range session.Languages() {
		languages = append(languages, LanguageResponse{Code: l, Label: l.Label(), Locale: l.Locale()})
	}
	c.JSON(http.StatusOK, gin.H{"languages": languages})
}

func (s *Server) handleDownload(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.session.DownloadStory(&buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+session.StoryFileName+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) handlePrompt(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.session.SetPrompt(req.Prompt); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	language, err := session.ParseLanguage(req.Language)
	if err == nil {
		err = s.session.ChangeLanguage(language)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleModel(c *gin.Context) {
	var req struct {
		Model string `json:"model" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := s.session.ChangeModel(req.Model); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.state())
}

// handleGenerate runs a full cycle and answers once the story and its
// illustrations are in place. An empty body uses the current prompt.
func (s *Server) handleGenerate(c *gin.Context) {
	var req struct {
		Topic string `json:"topic"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	topic := req.Topic
	if topic == "" {
		topic = s.session.Snapshot().Prompt
	}

	// The cycle outlives a disconnected client; only ClearAll cancels it.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := s.session.Generate(ctx, topic); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleListen(c *gin.Context) {
	if err := s.session.StartListening(context.WithoutCancel(c.Request.Context())); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, s.state())
}

func (s *Server) handleToggle(c *gin.Context) {
	changed := s.session.TogglePauseResume()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "state": s.state()})
}

func (s *Server) handleStop(c *gin.Context) {
	s.session.StopNarration()
	c.JSON(http.StatusOK, s.state())
}

func (s *Server) handleClear(c *gin.Context) {
	s.session.ClearAll()
	c.JSON(http.StatusOK, s.state())
}
