// Package httpapi serves translations to editor plugins over a local HTTP
// API. Requests never prompt; missing keys or languages are reported as
// failures.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal"
	"codeberg.org/snonux/deepledit/internal/editor"
	"codeberg.org/snonux/deepledit/internal/pipeline"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/translation"
)

// Options configures the listener
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the local HTTP API
type Server struct {
	container  *state.Container
	translator *translation.Client
	pipeline   *pipeline.Pipeline
	logger     zerolog.Logger
	opts       Options
}

// NewServer creates a server. translator must use a non-interactive
// prompter.
func NewServer(container *state.Container, translator *translation.Client, logger zerolog.Logger, opts Options) *Server {
	if strings.TrimSpace(opts.Addr) == "" {
		opts.Addr = "127.0.0.1:8765"
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	logger = logger.With().Str("component", "httpapi").Logger()
	return &Server{
		container:  container,
		translator: translator,
		pipeline:   pipeline.New(translator, silentNotifier{}, logger),
		logger:     logger,
		opts:       opts,
	}
}

// Handler builds the routed echo instance
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Debug()
			if v.Error != nil {
				event = s.logger.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/healthz", s.handleHealth)
	e.GET("/status", s.handleStatus)
	e.GET("/languages/:kind", s.handleLanguages)
	e.POST("/translate", s.handleTranslate)
	e.POST("/edits", s.handleEdits)
	return e
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	e := s.Handler()
	httpServer := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", s.opts.Addr).Msg("http api started")
	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("http api stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && strings.TrimSpace(m) != "" {
			message = m
		}
		if he.Code >= 500 {
			_ = internalError(c, message)
			return
		}
		_ = fail(c, he.Code, message)
		return
	}

	if errors.Is(err, editor.ErrRejected) {
		_ = fail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	status := statusFor(err)
	if status >= 500 && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		s.logger.Error().Err(err).Msg("request failed")
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, provider.Describe(err))
}

// statusFor maps a provider error to the response status
func statusFor(err error) int {
	if errors.Is(err, provider.ErrAuthentication) {
		return http.StatusUnauthorized
	}
	var te *provider.TransportError
	if !errors.As(err, &te) {
		return http.StatusInternalServerError
	}
	switch te.Kind {
	case provider.KindQuotaExceeded:
		return http.StatusPaymentRequired
	case provider.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case provider.KindRateLimited:
		return http.StatusTooManyRequests
	case provider.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "deepledit",
		"version": internal.Version,
		"time":    time.Now().UTC(),
	})
}

type silentNotifier struct{}

func (silentNotifier) Report(float64) {}

func (silentNotifier) Flash(string, time.Duration) {}

func requestFor(source, target string, mode state.TranslationMode) pipeline.Request {
	return pipeline.Request{
		Target:  target,
		Source:  source,
		Mode:    mode,
		Retries: translation.DefaultRetries,
	}
}
