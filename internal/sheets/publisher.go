// Package sheets publishes transaction tables to a Google Sheets spreadsheet
// using a service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrSpreadsheetNotFound is returned when no spreadsheet visible to the
// service account has the requested name.
var ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

// ErrNoCredentials is returned when no service-account file is configured.
var ErrNoCredentials = errors.New("no Google service-account credentials configured")

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Publisher replaces the contents of a spreadsheet's first sheet.
type Publisher struct {
	sheets *sheets.Service
	drive  *drive.Service
}

// NewPublisher creates a Publisher. opts are passed to both API clients.
func NewPublisher(ctx context.Context, opts ...option.ClientOption) (*Publisher, error) {
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive client: %w", err)
	}
	return &Publisher{sheets: sheetsSvc, drive: driveSvc}, nil
}

// NewPublisherFromCredentials authorizes with a service-account JSON file.
func NewPublisherFromCredentials(ctx context.Context, credentialsPath string) (*Publisher, error) {
	if credentialsPath == "" {
		return nil, ErrNoCredentials
	}
	return NewPublisher(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope),
	)
}

// Publish clears the first sheet of the spreadsheet called name and writes
// rows starting at A1. The first row is expected to hold column headers.
func (p *Publisher) Publish(ctx context.Context, name string, rows [][]any) error {
	id, err := p.findSpreadsheet(ctx, name)
	if err != nil {
		return err
	}

	title, err := p.firstSheetTitle(ctx, id)
	if err != nil {
		return err
	}
	rng := quoteSheet(title)

	if _, err := p.sheets.Spreadsheets.Values.Clear(id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing %s: %w", title, err)
	}

	vr := &sheets.ValueRange{Range: rng, MajorDimension: "ROWS", Values: rows}
	if _, err := p.sheets.Spreadsheets.Values.Update(id, rng, vr).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("updating %s: %w", title, err)
	}
	return nil
}

func (p *Publisher) findSpreadsheet(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := p.drive.Files.List().Q(q).Fields("files(id, name)").PageSize(10).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("searching for spreadsheet %q: %w", name, err)
	}
	for _, f := range list.Files {
		if f.Name == name {
			return f.Id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrSpreadsheetNotFound, name)
}

func (p *Publisher) firstSheetTitle(ctx context.Context, id string) (string, error) {
	ss, err := p.sheets.Spreadsheets.Get(id).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("opening spreadsheet: %w", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", errors.New("spreadsheet has no sheets")
	}
	return ss.Sheets[0].Properties.Title, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// quoteSheet turns a sheet title into an A1 range covering the whole sheet.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
