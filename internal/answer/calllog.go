package answer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CallRecord is one logged answer-generation call.
type CallRecord struct {
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
	Question  string `json:"question"`
	Prompt    string `json:"prompt"`
	Answer    string `json:"answer"`
}

// CallLog appends answer-generation calls as JSON lines to a per-run file.
type CallLog struct {
	mu   sync.Mutex
	path string
}

// NewCallLog creates a log file named after the store type and start time
// under dir. An empty dir disables logging (returns nil, nil).
func NewCallLog(dir, storeType string) (*CallLog, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("api_call_%s_%s.jsonl", storeType, time.Now().Format("20060102_150405"))
	return &CallLog{path: filepath.Join(dir, name)}, nil
}

// Record appends one call record. A nil CallLog is a no-op.
func (l *CallLog) Record(rec CallRecord) error {
	if l == nil {
		return nil
	}
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode call record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open call log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write call record: %w", err)
	}
	return nil
}
