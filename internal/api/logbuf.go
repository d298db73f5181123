package api

import "sync"

// LogBuffer keeps the most recent log lines in order so the control API can
// serve them to a frontend.
type LogBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
}

// NewLogBuffer creates a buffer holding at most max lines.
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = 500
	}
	return &LogBuffer{max: max}
}

// Append adds a line, discarding the oldest when full.
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
}

// Lines returns up to limit of the most recent lines, oldest first.
// limit <= 0 returns all buffered lines.
func (b *LogBuffer) Lines(limit int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := 0
	if limit > 0 && len(b.lines) > limit {
		start = len(b.lines) - limit
	}
	out := make([]string, len(b.lines)-start)
	copy(out, b.lines[start:])
	return out
}
