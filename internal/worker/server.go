// Package worker serves the push endpoint the message queue delivers to.
package worker

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"bcgov/pay-reconciler/internal/logging"
	"bcgov/pay-reconciler/internal/notify"
	"bcgov/pay-reconciler/internal/queue"
	"bcgov/pay-reconciler/internal/reconcile"

	"github.com/gin-gonic/gin"
)

// maxBodyBytes bounds a push request body.
const maxBodyBytes = 1 << 20

// Handler processes a decoded event.
type Handler interface {
	Handle(ctx context.Context, ce *queue.CloudEvent) *reconcile.Outcome
}

// Server is the push worker.
type Server struct {
	handler  Handler
	notifier notify.Notifier
	router   *gin.Engine
	logger   logging.Logger
}

// NewServer creates the worker and its routes. notifier receives alerts for
// pushes that never reach the handler.
func NewServer(handler Handler, notifier notify.Notifier, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	s := &Server{
		handler:  handler,
		notifier: notifier,
		router:   router,
		logger:   logger,
	}

	router.POST("/", s.handlePush)
	router.GET("/healthz", s.handleHealth)

	return s
}

// Handler returns the HTTP handler of the worker.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the worker in an http.Server listening on addr. Server
// errors go to the logger when it can provide a line writer.
func (s *Server) HTTPServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if w, ok := s.logger.(interface{ Writer() *io.PipeWriter }); ok {
		srv.ErrorLog = log.New(w.Writer(), "", 0)
	}
	return srv
}

// handlePush always answers 200: a message that failed once fails again, so
// errors go to the notifier instead of back to the queue.
func (s *Server) handlePush(c *gin.Context) {
	// Finish the file even if the push request is abandoned.
	ctx := context.WithoutCancel(c.Request.Context())

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		s.logger.WithError(err).Error("Failed to read push body")
		s.alertUndeliverable(ctx, body, err)
		c.JSON(http.StatusOK, gin.H{"status": reconcile.StatusFatal, "error": err.Error()})
		return
	}

	ce, err := queue.DecodePush(body)
	if err != nil {
		s.logger.WithError(err).Error("Dropping undecodable message")
		s.alertUndeliverable(ctx, body, err)
		c.JSON(http.StatusOK, gin.H{"status": reconcile.StatusFatal, "error": err.Error()})
		return
	}

	out := s.handler.Handle(ctx, ce)

	resp := gin.H{
		"status":    out.Status,
		"messageId": ce.ID,
	}
	if out.FileName != "" {
		resp["fileName"] = out.FileName
	}
	if out.Err != nil {
		resp["error"] = out.Err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// alertUndeliverable reports a push that could not be decoded, with the raw
// body as payload.
func (s *Server) alertUndeliverable(ctx context.Context, body []byte, cause error) {
	params := notify.EmailParams{
		Subject:       notify.SubjectFatal,
		ErrorMessages: []notify.ErrorMessage{{Error: cause.Error()}},
		Payload:       string(body),
	}
	if err := s.notifier.SendErrorEmail(ctx, params); err != nil {
		s.logger.WithError(err).Error("Failed to send error email")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Handled request",
			logging.F("method", c.Request.Method),
			logging.F("path", c.Request.URL.Path),
			logging.F(logging.FieldStatus, c.Writer.Status()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	}
}
