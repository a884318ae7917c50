package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ChartSentry/internal/domain/models"
	drepo "ChartSentry/internal/domain/repository"
)

// FileLedger stores the single most recent prediction as a JSON file.
// Writes go through a temp file and rename, so a crash mid-write leaves
// the previous record intact.
type FileLedger struct {
	mu   sync.Mutex
	path string
}

// NewFileLedger creates a ledger at path, creating parent directories.
func NewFileLedger(path string) (drepo.Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger dir: %w", err)
		}
	}
	return &FileLedger{path: path}, nil
}

// Load reads the stored record. A missing file means no prediction has
// ever been made and returns (nil, nil).
func (l *FileLedger) Load() (*models.PredictionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ledger read: %w", err)
	}

	var rec models.PredictionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("ledger decode: %w", err)
	}
	return &rec, nil
}

// Save overwrites the slot with rec.
func (l *FileLedger) Save(rec models.PredictionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger encode: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ledger write: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ledger rename: %w", err)
	}
	return nil
}
