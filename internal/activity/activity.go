// Package activity keeps a human-readable CSV trail of every applied
// ledger command, alongside the authoritative event log.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp      time.Time
	UserID         string
	Action         string
	Details        string
	EntityID       string
	IdempotencyKey string
}

var header = []string{"timestamp", "user_id", "action", "details", "entity_id", "idempotency_key"}

func (e Entry) record() []string {
	return []string{e.Timestamp.UTC().Format(time.RFC3339), e.UserID, e.Action, e.Details, e.EntityID, e.IdempotencyKey}
}

func parseEntry(rec []string) (Entry, error) {
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	return Entry{Timestamp: ts, UserID: rec[1], Action: rec[2], Details: rec[3], EntityID: rec[4], IdempotencyKey: rec[5]}, nil
}

// Log appends to a single CSV file. It is safe for concurrent use.
type Log struct {
	path string
	mu   sync.Mutex
}

// Open returns a Log writing to path. The file is created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string { return l.path }

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating activity log dir: %w", err)
	}
	needsHeader := false
	if _, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) {
		needsHeader = true
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(e.record()); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns the entries for userID, or every entry when userID is
// empty. A missing file yields no entries.
func (l *Log) Read(userID string) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	all, err := readEntries(f)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return all, nil
	}
	var out []Entry
	for _, e := range all {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity log CSV: %w", err)
		}
		if line == 1 {
			continue
		}
		e, err := parseEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}
