package testutils

import "sync"

// TestingT is the part of testing.T the helpers report through
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap turns key/value log fields into a map. A dangling key or a
// non-string key is reported through t and skipped.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	m := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			t.Errorf("log fields: key at index %d has no value", i)
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			t.Errorf("log fields: key at index %d is %T, not string", i, fields[i])
			continue
		}
		m[key] = fields[i+1]
	}
	return m
}

// LogEntry is one call captured by RecordingLogger
type LogEntry struct {
	Level  string
	Msg    string
	Fields []any
}

// RecordingLogger keeps every call it receives. It satisfies
// logging.Logger structurally and is safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (r *RecordingLogger) record(level, msg string, fields []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (r *RecordingLogger) Debug(msg string, fields ...any) { r.record("debug", msg, fields) }
func (r *RecordingLogger) Info(msg string, fields ...any)  { r.record("info", msg, fields) }
func (r *RecordingLogger) Warn(msg string, fields ...any)  { r.record("warn", msg, fields) }
func (r *RecordingLogger) Error(msg string, fields ...any) { r.record("error", msg, fields) }

// Entries returns the captured calls at level, or all of them when level
// is empty
func (r *RecordingLogger) Entries(level string) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []LogEntry
	for _, e := range r.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entry at level with message msg
func (r *RecordingLogger) Find(level, msg string) (LogEntry, bool) {
	for _, e := range r.Entries(level) {
		if e.Msg == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}
