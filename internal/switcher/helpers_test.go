package switcher

import "sync"

type logEntry struct {
	msg    string
	fields []interface{}
}

// recordingLogger captures entries per level; safe for concurrent use
type recordingLogger struct {
	mu     sync.Mutex
	debug  []logEntry
	info   []logEntry
	warns  []logEntry
	errors []logEntry
}

func (l *recordingLogger) Debug(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = append(l.debug, logEntry{msg, fields})
}

func (l *recordingLogger) Info(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.info = append(l.info, logEntry{msg, fields})
}

func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, logEntry{msg, fields})
}

func (l *recordingLogger) Error(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, logEntry{msg, fields})
}
