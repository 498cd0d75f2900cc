package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// RequestIDHeader carries the per-request ID in both directions.
	RequestIDHeader = echo.HeaderXRequestID
	requestIDKey    = "request_id"
)

// Error codes returned in the "error" field of failure responses.
const (
	CodePasswordRequired = "password_required"
	CodeInvalidPassword  = "invalid_password"
	CodeUnreadable       = "unreadable_statement"
	CodeMissingFile      = "missing_statement"
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeUnavailable      = "publishing_unavailable"
	CodeUpstream         = "upstream_error"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// apiError is returned by handlers and rendered by handleError.
type apiError struct {
	status  int
	code    string
	message string
	err     error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *apiError) Unwrap() error { return e.err }

func newAPIError(status int, code, message string, err error) *apiError {
	return &apiError{status: status, code: code, message: message, err: err}
}

// RequestID reuses an incoming X-Request-ID or generates one.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(requestIDKey, id)
			c.Response().Header().Set(RequestIDHeader, id)
			return next(c)
		}
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := ErrorResponse{RequestID: GetRequestID(c)}
	status := http.StatusInternalServerError

	var apiErr *apiError
	var httpErr *echo.HTTPError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.status
		resp.Error = apiErr.code
		resp.Message = apiErr.message
	case errors.As(err, &validationErrs):
		status = http.StatusBadRequest
		resp.Error = CodeValidation
		resp.Message = "request validation failed"
		resp.Fields = make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			resp.Fields[fe.Field()] = formatValidationError(fe)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		resp.Error = codeForStatus(status)
		resp.Message = fmt.Sprint(httpErr.Message)
	default:
		resp.Error = CodeInternal
		resp.Message = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", resp.RequestID, "path", c.Request().URL.Path, "status", status, "err", err)
	} else {
		s.logger.Warn("request rejected", "request_id", resp.RequestID, "path", c.Request().URL.Path, "status", status, "code", resp.Error)
	}
	s.metrics.apiErrors.WithLabelValues(resp.Error, c.Path()).Inc()

	if sendErr := c.JSON(status, resp); sendErr != nil {
		s.logger.Error("sending error response", "request_id", resp.RequestID, "err", sendErr)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusMethodNotAllowed:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	default:
		return CodeInternal
	}
}
