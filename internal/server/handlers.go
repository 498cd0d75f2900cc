package server

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/banklens/banklens/internal/export"
	"github.com/banklens/banklens/internal/model"
	"github.com/banklens/banklens/internal/pdftext"
	"github.com/banklens/banklens/internal/report"
	"github.com/banklens/banklens/internal/sheets"
	"github.com/banklens/banklens/internal/statement"
)

const (
	// NoTransactionsMessage accompanies an empty extraction result.
	NoTransactionsMessage = "No transactions found."
	// PublishedMessage is returned after a successful publish.
	PublishedMessage = "Uploaded to Google Sheets!"

	statementField = "statement"
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// statementForm is the multipart form shared by every statement endpoint.
type statementForm struct {
	Password string `form:"password"`
	Category string `form:"category" validate:"max=100"`
}

type exportQuery struct {
	Format   string `query:"format" validate:"omitempty,oneof=csv xlsx"`
	Filename string `query:"filename" validate:"omitempty,max=100,excludesall=/\\"`
}

type publishForm struct {
	Sheet string `form:"sheet" validate:"max=100"`
}

// ExtractResponse is the body of a successful extraction.
type ExtractResponse struct {
	Count        int                    `json:"count"`
	Categories   []string               `json:"categories"`
	Transactions []model.Transaction    `json:"transactions"`
	Totals       []report.CategoryTotal `json:"totals"`
	Message      string                 `json:"message,omitempty"`
}

// MessageResponse carries a single human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) extract(c echo.Context) error {
	all, txns, err := s.readStatement(c)
	if err != nil {
		return err
	}
	for _, t := range all {
		s.metrics.transactions.WithLabelValues(t.Category).Inc()
	}

	resp := ExtractResponse{
		Count:        len(txns),
		Categories:   report.Choices(all),
		Transactions: txns,
		Totals:       report.Totals(txns),
	}
	if resp.Transactions == nil {
		resp.Transactions = []model.Transaction{}
	}
	if len(txns) == 0 {
		resp.Message = NoTransactionsMessage
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) export(c echo.Context) error {
	var q exportQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	_, txns, err := s.readStatement(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	var contentType, name string
	switch q.Format {
	case "xlsx":
		if err := export.WriteXLSX(&buf, txns); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		contentType, name = xlsxMIME, export.Filename(q.Filename, ".xlsx")
	default:
		if err := export.WriteCSV(&buf, txns); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		contentType, name = "text/csv; charset=utf-8", export.Filename(q.Filename, ".csv")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) publish(c echo.Context) error {
	var form publishForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	if err := c.Validate(&form); err != nil {
		return err
	}
	if s.publisher == nil {
		return newAPIError(http.StatusServiceUnavailable, CodeUnavailable, "Google Sheets publishing is not configured", nil)
	}

	sheet := form.Sheet
	if sheet == "" {
		sheet = s.sheetName
	}
	if sheet == "" {
		return newAPIError(http.StatusBadRequest, CodeValidation, "a sheet name is required", nil)
	}

	_, txns, err := s.readStatement(c)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(c.Request().Context(), sheet, export.Rows(txns)); err != nil {
		if errors.Is(err, sheets.ErrSpreadsheetNotFound) {
			return newAPIError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("spreadsheet %q not found", sheet), err)
		}
		return newAPIError(http.StatusBadGateway, CodeUpstream, "publishing to Google Sheets failed", err)
	}

	s.logger.Info("published", "request_id", GetRequestID(c), "sheet", sheet, "transactions", len(txns))
	return c.JSON(http.StatusOK, MessageResponse{Message: PublishedMessage})
}

// readStatement binds the shared form and analyzes the uploaded file. It
// returns every record found and the subset matching the category filter.
func (s *Server) readStatement(c echo.Context) (all, txns []model.Transaction, err error) {
	var form statementForm
	if err := c.Bind(&form); err != nil {
		return nil, nil, err
	}
	if err := c.Validate(&form); err != nil {
		return nil, nil, err
	}

	fh, err := c.FormFile(statementField)
	if err != nil {
		return nil, nil, newAPIError(http.StatusBadRequest, CodeMissingFile, "a statement PDF is required in the 'statement' field", err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, newAPIError(http.StatusBadRequest, CodeUnreadable, "unable to read the uploaded file", err)
	}
	defer f.Close()

	result, err := s.analyze(fh, f, form.Password)
	if err != nil {
		return nil, nil, err
	}

	return result.Transactions, report.Filter(result.Transactions, form.Category), nil
}

func (s *Server) analyze(fh *multipart.FileHeader, f multipart.File, password string) (*statement.Result, error) {
	if password == "" {
		encrypted, err := s.analyzer.IsEncrypted(f, fh.Size)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, CodeUnreadable, pdftext.ErrUnreadable.Error(), err)
		}
		if encrypted {
			return nil, newAPIError(http.StatusUnprocessableEntity, CodePasswordRequired, "This PDF is password-protected. Please enter the password.", nil)
		}
	}

	result, err := s.analyzer.Analyze(fh.Filename, f, fh.Size, password)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, pdftext.ErrPasswordRequired):
		return nil, newAPIError(http.StatusUnprocessableEntity, CodePasswordRequired, "This PDF is password-protected. Please enter the password.", err)
	case errors.Is(err, pdftext.ErrInvalidPassword):
		return nil, newAPIError(http.StatusUnprocessableEntity, CodeInvalidPassword, "Incorrect password. Please try again.", err)
	default:
		return nil, newAPIError(http.StatusBadRequest, CodeUnreadable, pdftext.ErrUnreadable.Error(), err)
	}
}
