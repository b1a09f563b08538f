package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
)

// LogEntry is one line of the operation log shown in the history panel.
type LogEntry struct {
	Time    time.Time
	Message string
}

func (e LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Message)
}

// OpLog is the append-only, human-readable record of applied operations.
type OpLog struct {
	mu      sync.RWMutex
	entries []LogEntry
	now     func() time.Time
}

func NewOpLog() *OpLog {
	return &OpLog{now: time.Now}
}

// Add appends a formatted message.
func (l *OpLog) Add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Time: l.now(), Message: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of every entry, oldest first.
func (l *OpLog) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Messages returns the bare messages, oldest first.
func (l *OpLog) Messages() []string {
	return lo.Map(l.Entries(), func(e LogEntry, _ int) string { return e.Message })
}

// Lines returns the timestamped lines, oldest first.
func (l *OpLog) Lines() []string {
	return lo.Map(l.Entries(), func(e LogEntry, _ int) string { return e.String() })
}

func (l *OpLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Reset drops every entry.
func (l *OpLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
