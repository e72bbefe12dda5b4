// Package ledger owns the append-only send history, the only state that
// survives between runs.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"outreach-engine/internal/domain"
)

// ErrLocked means another run holds the ledger. Concurrent runs are not a
// supported configuration; failing fast beats interleaved appends.
var ErrLocked = errors.New("ledger locked by another process")

var columns = []string{"email", "company", "timestamp", "status"}

// Ledger is a CSV-backed append-only record of send attempts. Rows are
// never mutated or deleted. A single process owns the file for the whole
// run, enforced with a sibling .lock file.
type Ledger struct {
	path    string
	fl      *flock.Flock
	records []domain.SendRecord
	seen    map[string]bool
}

// Open acquires the run lock and reads the existing history. A missing
// file is a first run, not an error.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("ledger lock: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	records, err := load(path)
	if err != nil {
		_ = fl.Unlock()
		return nil, err
	}

	l := &Ledger{
		path:    path,
		fl:      fl,
		records: records,
		seen:    make(map[string]bool, len(records)),
	}
	for _, r := range records {
		l.seen[strings.ToLower(r.Email)] = true
	}
	return l, nil
}

func load(path string) ([]domain.SendRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger header: %w", err)
	}

	// Column positions come from the header, so older files with extra or
	// reordered columns still load.
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("ledger header missing column %q", c)
		}
	}

	var out []domain.SendRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ledger row: %w", err)
		}
		field := func(name string) string {
			i := idx[name]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		out = append(out, domain.SendRecord{
			Email:     strings.ToLower(strings.TrimSpace(field("email"))),
			Company:   field("company"),
			Timestamp: field("timestamp"),
			Status:    domain.SendStatus(field("status")),
		})
	}
	return out, nil
}

// Append durably adds one record, then updates the in-memory view so the
// rest of the run sees it immediately. The in-memory view is updated even
// when the disk write fails, so one bad write cannot make the same
// recipient eligible twice within a run.
func (l *Ledger) Append(rec domain.SendRecord) error {
	diskErr := l.appendFile(rec)
	l.records = append(l.records, rec)
	l.seen[strings.ToLower(rec.Email)] = true
	return diskErr
}

func (l *Ledger) appendFile(rec domain.SendRecord) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("ledger append open: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("ledger append stat: %w", err)
	}

	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("ledger write header: %w", err)
		}
	}
	if err := w.Write([]string{rec.Email, rec.Company, rec.Timestamp, string(rec.Status)}); err != nil {
		return fmt.Errorf("ledger write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("ledger flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("ledger sync: %w", err)
	}
	return nil
}

// Contains reports whether the address was ever attempted, whatever the
// outcome. A failed attempt still counts as handled.
func (l *Ledger) Contains(email string) bool {
	return l.seen[strings.ToLower(strings.TrimSpace(email))]
}

// Records returns the in-memory view in insertion order. Callers must not
// mutate it.
func (l *Ledger) Records() []domain.SendRecord {
	return l.records
}

func (l *Ledger) Len() int { return len(l.records) }

// Close releases the run lock.
func (l *Ledger) Close() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
