package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/menta2k/snipper/pkg/types"
)

// Status is the processing state of one manifest
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusArchived   Status = "archived"
	StatusFailed     Status = "failed"
)

// Record is one line of the ledger
type Record struct {
	Time       time.Time          `json:"time"`
	RunID      string             `json:"run_id"`
	Manifest   string             `json:"manifest"`
	Artifact   string             `json:"artifact"`
	Type       types.ArtifactType `json:"type"`
	Status     Status             `json:"status"`
	Entries    int                `json:"entries,omitempty"`
	ArchivedTo string             `json:"archived_to,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Ledger is an append-only JSON-lines log of manifest status transitions
type Ledger struct {
	path string
}

// NewLedger returns a ledger writing to path; the file is created on first append
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file location
func (l *Ledger) Path() string {
	return l.path
}

// Append writes rec as one line and syncs it to disk
func (l *Ledger) Append(rec Record) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode ledger record: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return f.Close()
}

// ReadLedger loads every record of the ledger at path, oldest first
func ReadLedger(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("ledger %s line %d: %w", path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return records, nil
}

// LatestStatus folds records into the last known status per manifest path
func LatestStatus(records []Record) map[string]Status {
	out := make(map[string]Status, len(records))
	for _, rec := range records {
		out[rec.Manifest] = rec.Status
	}
	return out
}
