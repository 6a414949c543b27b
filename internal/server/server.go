// Package server exposes the relay over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tradingview-relay/internal/config"
	"tradingview-relay/internal/logging"
	"tradingview-relay/internal/models"
)

// HealthMessage is the body of GET /.
const HealthMessage = "✅ TradingView Webhook → Telegram relay is running"

// Processor runs the relay pipeline for one webhook body.
type Processor interface {
	Process(ctx context.Context, body []byte, contentType string) (models.Notification, error)
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

var (
	okResponse      = statusResponse{Status: "ok"}
	invalidResponse = statusResponse{Status: "error", Message: "Invalid JSON"}
)

// Server is the webhook HTTP server.
type Server struct {
	cfg       config.ServerConfig
	processor Processor
	logger    zerolog.Logger
	engine    *gin.Engine
}

// New creates a Server and registers its routes.
func New(cfg config.ServerConfig, processor Processor, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:       cfg,
		processor: processor,
		logger:    logging.WithOperation(logger, "http"),
	}

	r := gin.New()
	r.Use(RequestContext(s.logger))
	r.Use(AccessLog())
	r.Use(Recovery())

	r.POST("/webhook", s.handleWebhook)
	r.GET("/", s.handleHealth)
	r.HEAD("/", s.handleHealthHead)

	s.engine = r
	return s
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Listening for webhooks")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Dur("timeout", timeout).Msg("Shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	body, err := s.readBody(c)
	if err != nil {
		logger.Warn().Err(err).Int64("limit", s.cfg.MaxBodyBytes).Msg("Failed to read webhook body")
		c.JSON(http.StatusBadRequest, invalidResponse)
		return
	}

	if _, err := s.processor.Process(ctx, body, c.ContentType()); err != nil {
		c.JSON(http.StatusBadRequest, invalidResponse)
		return
	}
	c.JSON(http.StatusOK, okResponse)
}

func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	r := c.Request.Body
	if s.cfg.MaxBodyBytes > 0 {
		r = http.MaxBytesReader(c.Writer, r, s.cfg.MaxBodyBytes)
	}
	return io.ReadAll(r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, HealthMessage)
}

func (s *Server) handleHealthHead(c *gin.Context) {
	c.Status(http.StatusOK)
}
