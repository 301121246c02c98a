// Package sinkfile appends output rows to a local NDJSON file, one record
// per row.
package sinkfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Row is one output row.
type Row struct {
	Cells []string
	Bold  bool
}

// Record is the line written for each row.
type Record struct {
	Sheet     string    `json:"sheet"`
	Cells     []string  `json:"cells"`
	Bold      bool      `json:"bold,omitempty"`
	WrittenAt time.Time `json:"written_at"`
}

// Writer is safe for concurrent use.
type Writer struct {
	FilePath string

	mu  sync.Mutex
	now func() time.Time
}

func NewWriter(path string) *Writer {
	return &Writer{FilePath: path, now: time.Now}
}

// AppendRows writes rows in order. The file is opened per call so a crashed
// run leaves every completed batch on disk.
func (w *Writer) AppendRows(ctx context.Context, sheet string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", w.FilePath, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	writtenAt := w.now().UTC()
	for _, row := range rows {
		record := Record{Sheet: sheet, Cells: row.Cells, Bold: row.Bold, WrittenAt: writtenAt}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
