package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a Zap Core that also hands entries to the DB writer
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
	level  zapcore.Level
	fields []zapcore.Field
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
// for entries at level and above
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter, level zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
		level:  level,
	}
}

// With keeps the fields of child loggers so session ids reach the DB record
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:   c.Core.With(fields),
		writer: c.writer,
		level:  c.level,
		fields: append(append([]zapcore.Field(nil), c.fields...), fields...),
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.level {
		var sessionID, correlationID string
		for _, f := range append(append([]zapcore.Field(nil), c.fields...), fields...) {
			switch f.Key {
			case "session":
				sessionID = f.String
			case "correlation_id":
				correlationID = f.String
			}
		}

		c.writer.AddLog(LogEntry{
			Level:         entry.Level,
			Message:       entry.Message,
			SessionID:     sessionID,
			CorrelationID: correlationID,
			Caller:        entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
