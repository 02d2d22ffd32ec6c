package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ricardosaldanha2005/defi-lending/internal/model"
)

// JsonlStorage appends events to a JSONL file and keeps watermarks in a
// sidecar JSON file. Useful for audit dumps and local runs; the append-only
// file means replays can duplicate lines, so the Postgres sink is the
// idempotent one.
type JsonlStorage struct {
	path string
	mu   sync.Mutex

	marks map[string]model.SyncWatermark
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path, marks: make(map[string]model.SyncWatermark)}
}

type jsonlRow struct {
	Wallet string `json:"wallet"`
	model.NormalizedEvent
}

// UpsertEvents appends a batch of events as JSON lines.
func (s *JsonlStorage) UpsertEvents(_ context.Context, wallet string, events []model.NormalizedEvent) error {
	if len(events) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, event := range events {
		line, err := json.Marshal(jsonlRow{Wallet: wallet, NormalizedEvent: event})
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}

// LoadWatermark reads the watermark from the sidecar file.
func (s *JsonlStorage) LoadWatermark(_ context.Context, wallet string) (model.SyncWatermark, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mark, ok := s.marks[wallet]; ok {
		return mark, true, nil
	}

	data, err := os.ReadFile(s.markPath())
	if err != nil {
		if os.IsNotExist(err) {
			return model.SyncWatermark{}, false, nil
		}
		return model.SyncWatermark{}, false, fmt.Errorf("read watermarks: %w", err)
	}
	if err := json.Unmarshal(data, &s.marks); err != nil {
		return model.SyncWatermark{}, false, fmt.Errorf("parse watermarks: %w", err)
	}
	mark, ok := s.marks[wallet]
	return mark, ok, nil
}

// SaveWatermark writes the watermark map atomically via tmp+rename.
func (s *JsonlStorage) SaveWatermark(_ context.Context, mark model.SyncWatermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marks[mark.Wallet] = mark
	data, err := json.Marshal(s.marks)
	if err != nil {
		return fmt.Errorf("marshal watermarks: %w", err)
	}

	path := s.markPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write watermarks tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename watermarks: %w", err)
	}
	return nil
}

func (s *JsonlStorage) markPath() string {
	return s.path + ".watermarks.json"
}
