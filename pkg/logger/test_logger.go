package logger

import (
	"sync"

	"github.com/rs/zerolog"
)

// TestLogger captures log messages for assertions in tests.
type TestLogger struct {
	mu       sync.Mutex
	messages []LogMessage
	zerolog  *zerolog.Logger
}

// LogMessage is one captured log entry.
type LogMessage struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// NewTestLogger creates a logger that records instead of printing.
func NewTestLogger() *TestLogger {
	nop := zerolog.Nop()
	return &TestLogger{zerolog: &nop}
}

func (l *TestLogger) Debug(msg string) { l.log("DEBUG", msg, nil) }
func (l *TestLogger) Info(msg string)  { l.log("INFO", msg, nil) }
func (l *TestLogger) Warn(msg string)  { l.log("WARN", msg, nil) }
func (l *TestLogger) Error(msg string) { l.log("ERROR", msg, nil) }
func (l *TestLogger) Fatal(msg string) { l.log("FATAL", msg, nil) }

func (l *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.log("DEBUG", msg, fields)
}

func (l *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.log("INFO", msg, fields)
}

func (l *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.log("WARN", msg, fields)
}

func (l *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.log("ERROR", msg, fields)
}

func (l *TestLogger) WithField(key string, value interface{}) Logger {
	return &testLoggerScope{parent: l, fields: map[string]interface{}{key: value}}
}

func (l *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerScope{parent: l, fields: fields}
}

func (l *TestLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *TestLogger) GetZerolog() *zerolog.Logger {
	return l.zerolog
}

// Messages returns a copy of the captured log entries.
func (l *TestLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *TestLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	l.messages = append(l.messages, LogMessage{Level: level, Message: msg, Fields: copied})
}

// testLoggerScope records into its parent with extra fields attached.
type testLoggerScope struct {
	parent *TestLogger
	fields map[string]interface{}
}

func (s *testLoggerScope) merged(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(s.fields)+len(fields))
	for k, v := range s.fields {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func (s *testLoggerScope) Debug(msg string) { s.parent.log("DEBUG", msg, s.fields) }
func (s *testLoggerScope) Info(msg string)  { s.parent.log("INFO", msg, s.fields) }
func (s *testLoggerScope) Warn(msg string)  { s.parent.log("WARN", msg, s.fields) }
func (s *testLoggerScope) Error(msg string) { s.parent.log("ERROR", msg, s.fields) }
func (s *testLoggerScope) Fatal(msg string) { s.parent.log("FATAL", msg, s.fields) }

func (s *testLoggerScope) DebugWithFields(msg string, fields map[string]interface{}) {
	s.parent.log("DEBUG", msg, s.merged(fields))
}

func (s *testLoggerScope) InfoWithFields(msg string, fields map[string]interface{}) {
	s.parent.log("INFO", msg, s.merged(fields))
}

func (s *testLoggerScope) WarnWithFields(msg string, fields map[string]interface{}) {
	s.parent.log("WARN", msg, s.merged(fields))
}

func (s *testLoggerScope) ErrorWithFields(msg string, fields map[string]interface{}) {
	s.parent.log("ERROR", msg, s.merged(fields))
}

func (s *testLoggerScope) WithField(key string, value interface{}) Logger {
	return &testLoggerScope{parent: s.parent, fields: s.merged(map[string]interface{}{key: value})}
}

func (s *testLoggerScope) WithFields(fields map[string]interface{}) Logger {
	return &testLoggerScope{parent: s.parent, fields: s.merged(fields)}
}

func (s *testLoggerScope) WithError(err error) Logger {
	if err == nil {
		return s
	}
	return s.WithField("error", err.Error())
}

func (s *testLoggerScope) GetZerolog() *zerolog.Logger {
	return s.parent.zerolog
}
