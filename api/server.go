// Package api exposes the orchestrator over HTTP: start a run, poll its
// status. The dashboard and the cron trigger both go through it.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"giggle/pipeline"
)

// Server is the orchestrator HTTP server.
type Server struct {
	state      *pipeline.StateManager
	runner     *pipeline.Runner
	httpServer *http.Server
	cron       *cron.Cron
}

// NewServer creates the orchestrator server listening on port.
func NewServer(state *pipeline.StateManager, runner *pipeline.Runner, port string) *Server {
	s := &Server{
		state:  state,
		runner: runner,
		cron:   cron.New(),
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	pg := r.Group("/api/pipeline")
	pg.POST("/start", s.handleStart)
	pg.GET("/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() {
	logrus.WithField("addr", s.httpServer.Addr).Info("starting orchestrator server")
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("http server error")
		}
	}()
}

// StartCron schedules automated pipeline runs. An empty schedule disables
// the cron trigger.
func (s *Server) StartCron(schedule string) error {
	if schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(schedule, func() {
		logrus.Info("cron triggered pipeline run")
		if err := s.runner.Run(context.Background()); err != nil {
			if errors.Is(err, pipeline.ErrBusy) {
				logrus.WithField("state", s.state.State()).Info("cron skipped, pipeline busy")
				return
			}
			logrus.WithError(err).Error("cron pipeline run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.cron.Start()
	logrus.WithField("schedule", schedule).Info("cron trigger started")
	return nil
}

// Shutdown gracefully stops the cron trigger and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down orchestrator server")
	s.cron.Stop()
	return s.httpServer.Shutdown(ctx)
}

// handleStart launches a pipeline run asynchronously.
// POST /api/pipeline/start
func (s *Server) handleStart(c *gin.Context) {
	if s.state.State().Busy() {
		c.JSON(http.StatusConflict, gin.H{
			"error": fmt.Sprintf("pipeline already running (state=%s)", s.state.State()),
		})
		return
	}

	go func() {
		if err := s.runner.Run(context.Background()); err != nil && !errors.Is(err, pipeline.ErrBusy) {
			logrus.WithError(err).Error("pipeline run failed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// handleStatus returns a snapshot of the current run.
// GET /api/pipeline/status
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Status())
}

// handleHealth is the liveness endpoint.
// GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
