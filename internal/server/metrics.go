package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	transactions *prometheus.CounterVec
	apiErrors    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banklens_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "banklens_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		transactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banklens_transactions_extracted_total",
				Help: "Total number of transactions extracted by category",
			},
			[]string{"category"},
		),
		apiErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "banklens_api_errors_total",
				Help: "Total number of API errors by code and route",
			},
			[]string{"code", "route"},
		),
	}
}

// observe records request counts and latency for every route.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the response so the status is final.
			c.Error(err)
		}

		route := c.Path()
		status := c.Response().Status
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
		s.metrics.duration.WithLabelValues(route).Observe(elapsed.Seconds())
		s.logger.Debug("request",
			"request_id", GetRequestID(c),
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"duration", elapsed,
		)
		return nil
	}
}
