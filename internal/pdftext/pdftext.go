// Package pdftext pulls plain text out of statement PDFs, including
// password-protected ones.
package pdftext

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

var (
	// ErrPasswordRequired is returned when the document is encrypted and no
	// password was supplied.
	ErrPasswordRequired = errors.New("pdf is password-protected")
	// ErrInvalidPassword is returned when the supplied password does not
	// decrypt the document.
	ErrInvalidPassword = errors.New("invalid pdf password")
	// ErrUnreadable is returned for corrupt or improperly decrypted files.
	ErrUnreadable = errors.New("unable to read the pdf; it might be corrupted or improperly decrypted")
)

// Extractor converts PDF documents to newline-delimited text.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor { return &Extractor{} }

// IsEncrypted reports whether the document needs a password to open.
func (e *Extractor) IsEncrypted(r io.ReaderAt, size int64) (bool, error) {
	_, err := open(r, size, "")
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, ErrPasswordRequired):
		return true, nil
	default:
		return false, err
	}
}

// Extract returns the text of every page that has any, one visual row per
// line. Pages are joined by newlines.
func (e *Extractor) Extract(r io.ReaderAt, size int64, password string) (text string, err error) {
	doc, err := open(r, size, password)
	if err != nil {
		return "", err
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	var pages []string
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").IsNull() {
			continue
		}
		rows := pageRows(page.Content().Text)
		if len(rows) == 0 {
			continue
		}
		pages = append(pages, strings.Join(rows, "\n"))
	}
	return strings.Join(pages, "\n"), nil
}

// ExtractFile opens path and extracts its text.
func (e *Extractor) ExtractFile(path, password string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat statement: %w", err)
	}
	return e.Extract(f, info.Size(), password)
}

// IsEncryptedFile opens path and reports whether it needs a password.
func (e *Extractor) IsEncryptedFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat statement: %w", err)
	}
	return e.IsEncrypted(f, info.Size())
}

func open(r io.ReaderAt, size int64, password string) (doc *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, p)
		}
	}()

	doc, err = pdf.NewReaderEncrypted(r, size, passwordFunc(password))
	if err == nil {
		return doc, nil
	}
	if errors.Is(err, pdf.ErrInvalidPassword) {
		if password == "" {
			return nil, ErrPasswordRequired
		}
		return nil, ErrInvalidPassword
	}
	return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
}

// passwordFunc yields password once; the reader stops asking on "".
func passwordFunc(password string) func() string {
	if password == "" {
		return nil
	}
	asked := false
	return func() string {
		if asked {
			return ""
		}
		asked = true
		return password
	}
}
