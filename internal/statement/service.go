// Package statement turns statement documents into categorized transactions.
package statement

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/banklens/banklens/internal/importer"
	"github.com/banklens/banklens/internal/model"
)

// ErrNoTransactions is returned by Require when a statement yields no records.
var ErrNoTransactions = errors.New("no transactions found")

// TextExtractor pulls newline-delimited text out of a document.
type TextExtractor interface {
	IsEncrypted(r io.ReaderAt, size int64) (bool, error)
	Extract(r io.ReaderAt, size int64, password string) (string, error)
}

// Result is the outcome of analyzing one statement.
type Result struct {
	Source       string
	Transactions []model.Transaction
}

// Empty reports whether no line qualified as a transaction.
func (r *Result) Empty() bool { return len(r.Transactions) == 0 }

// Require returns ErrNoTransactions for an empty result.
func (r *Result) Require() error {
	if r.Empty() {
		return ErrNoTransactions
	}
	return nil
}

// Service provides statement analysis.
type Service struct {
	extractor TextExtractor
	parser    importer.Parser
	logger    *log.Logger
}

// NewService creates a statement Service.
func NewService(extractor TextExtractor, parser importer.Parser, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{extractor: extractor, parser: parser, logger: logger}
}

// IsEncrypted reports whether the document needs a password.
func (s *Service) IsEncrypted(r io.ReaderAt, size int64) (bool, error) {
	return s.extractor.IsEncrypted(r, size)
}

// Analyze extracts text from the document and parses it. An empty result
// is not an error.
func (s *Service) Analyze(source string, r io.ReaderAt, size int64, password string) (*Result, error) {
	text, err := s.extractor.Extract(r, size, password)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", source, err)
	}
	s.logger.Debug("extracted text", "source", source, "bytes", len(text))

	txns := s.parser.Parse(text)
	s.logger.Info("parsed statement", "source", source, "format", s.parser.Format(), "transactions", len(txns))

	return &Result{Source: source, Transactions: txns}, nil
}

// AnalyzeFile opens path and analyzes it.
func (s *Service) AnalyzeFile(path, password string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat statement: %w", err)
	}
	return s.Analyze(path, f, info.Size(), password)
}
