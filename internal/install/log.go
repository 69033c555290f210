package install

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"content-mover/internal/model"
)

// DefinitionPath is the log path used for an object's definition.
const DefinitionPath = "object.yaml"

// LogEntry records one file touched by a committed transaction.
type LogEntry struct {
	Transaction string             `json:"transaction"`
	Object      model.DependencyID `json:"-"`
	ObjectKey   string             `json:"object"`
	Path        string             `json:"path"`
	Action      Action             `json:"action"`
	Time        time.Time          `json:"time"`
}

// LogWriter appends log entries as JSON lines.
type LogWriter struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewLogWriter writes entries to w.
func NewLogWriter(w io.Writer) *LogWriter {
	return &LogWriter{w: w}
}

// OpenLog opens path for appending, creating it if needed.
func OpenLog(path string) (*LogWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction log %s: %w", path, err)
	}

	return &LogWriter{w: f, c: f}, nil
}

// Write appends entries, one JSON object per line.
func (l *LogWriter) Write(entries ...LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	bw := bufio.NewWriter(l.w)
	enc := json.NewEncoder(bw)

	for _, e := range entries {
		e.ObjectKey = e.Object.String()
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode log entry: %w", err)
		}
	}

	return bw.Flush()
}

// Close closes the underlying file, if OpenLog created it.
func (l *LogWriter) Close() error {
	if l.c == nil {
		return nil
	}

	return l.c.Close()
}

// ReadLog decodes a JSON-lines transaction log.
func ReadLog(r io.Reader) ([]LogEntry, error) {
	var out []LogEntry

	dec := json.NewDecoder(r)
	for dec.More() {
		var e LogEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("failed to decode log entry %d: %w", len(out)+1, err)
		}

		id, err := model.ParseDependencyID(e.ObjectKey)
		if err != nil {
			return nil, err
		}

		e.Object = id
		out = append(out, e)
	}

	return out, nil
}
