// Package server exposes statement extraction, export and publishing over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banklens/banklens/internal/statement"
)

// MaxUploadSize bounds the request body of statement uploads.
const MaxUploadSize = "20M"

// Analyzer turns an uploaded statement into transactions.
type Analyzer interface {
	IsEncrypted(r io.ReaderAt, size int64) (bool, error)
	Analyze(source string, r io.ReaderAt, size int64, password string) (*statement.Result, error)
}

// Publisher writes a table to a named spreadsheet.
type Publisher interface {
	Publish(ctx context.Context, name string, rows [][]any) error
}

// Options configures a Server. Publisher may be nil, in which case the
// publish endpoint reports that publishing is unavailable.
type Options struct {
	Analyzer  Analyzer
	Publisher Publisher
	SheetName string
	Logger    *log.Logger
	Registry  *prometheus.Registry
}

// Server is the HTTP surface.
type Server struct {
	echo      *echo.Echo
	analyzer  Analyzer
	publisher Publisher
	sheetName string
	logger    *log.Logger
	metrics   *metrics
}

// New builds a Server with its routes and middleware registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		echo:      echo.New(),
		analyzer:  opts.Analyzer,
		publisher: opts.Publisher,
		sheetName: opts.SheetName,
		logger:    logger,
		metrics:   newMetrics(reg),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(RequestID())
	e.Use(s.observe)

	e.GET("/health", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := e.Group("/api/statements", middleware.BodyLimit(MaxUploadSize))
	api.POST("/extract", s.extract)
	api.POST("/export", s.export)
	api.POST("/publish", s.publish)

	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
