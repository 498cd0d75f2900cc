package history

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
)

// Actions recorded in the activity log.
const (
	ActionExtract = "extract"
	ActionExport  = "export"
	ActionPublish = "publish"
)

// Entry is one row in the activity log.
type Entry struct {
	ID        string    `csv:"id"`
	Timestamp time.Time `csv:"timestamp"`
	Action    string    `csv:"action"`
	Source    string    `csv:"source"`
	Records   int       `csv:"records"`
	Detail    string    `csv:"detail"`
}

// Header is the CSV header for activity-log.csv.
const Header = "id,timestamp,action,source,records,detail"

const (
	logDir  = "logs"
	logFile = "activity-log.csv"
)

// Path returns the activity log location under root.
func Path(root string) string {
	return filepath.Join(root, logDir, logFile)
}

// NewEntry stamps an entry with a fresh ID and the current UTC time.
func NewEntry(action, source string, records int, detail string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Action:    action,
		Source:    source,
		Records:   records,
		Detail:    detail,
	}
}

// Append writes entries to <root>/logs/activity-log.csv, creating the file and header if needed.
func Append(root string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(root)
	needsHeader := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	return writeEntries(f, entries, needsHeader)
}

// writeEntries marshals entries to w, with a header row when asked, and
// closes w.
func writeEntries(w io.WriteCloser, entries []Entry, header bool) error {
	var err error
	if header {
		err = gocsv.Marshal(entries, w)
	} else {
		err = gocsv.MarshalWithoutHeaders(entries, w)
	}
	if err != nil {
		w.Close()
		return fmt.Errorf("writing activity log: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing activity log: %w", err)
	}
	return nil
}

// Read returns all entries from <root>/logs/activity-log.csv.
// Returns nil if the file does not exist or holds only a header.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(Path(root))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	if err := gocsv.UnmarshalFile(f, &entries); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading activity log: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries, nil
}
