package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEntry is one NDJSON line in the model call trace.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	PromptSlug  string          `json:"prompt,omitempty"`
	Model       string          `json:"model,omitempty"`
	Endpoint    string          `json:"endpoint"`
	Method      string          `json:"method"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// EntryFor seeds a trace entry with the prompt and model of req.
func EntryFor(driverName string, req *Request) TraceEntry {
	entry := TraceEntry{Driver: driverName}
	if req != nil {
		entry.PromptSlug = req.PromptSlug
		entry.Model = req.Model
	}
	return entry
}

// Tracer appends trace entries to a file.
type Tracer struct {
	file *os.File
	mu   sync.Mutex
}

var active atomic.Pointer[Tracer]

// EnableTracing routes every driver call to path until the returned
// cleanup runs. A previous tracer is closed.
func EnableTracing(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	t := &Tracer{file: f}
	if prev := active.Swap(t); prev != nil {
		_ = prev.Close()
	}
	return func() {
		if active.CompareAndSwap(t, nil) {
			_ = t.Close()
		}
	}, nil
}

// Trace records entry when tracing is enabled.
func Trace(entry TraceEntry) {
	active.Load().Write(entry)
}

// Write appends entry as one JSON line.
func (t *Tracer) Write(entry TraceEntry) {
	if t == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return
	}
	_, _ = t.file.Write(data)
}

// Close closes the trace file. Later writes are dropped.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
