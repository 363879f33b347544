package logger

import (
	"context"
	"fmt"
	"time"

	"go-dashboard/internal/config"
	"go-dashboard/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level         zapcore.Level
	Message       string
	SessionID     string
	CorrelationID string
	Caller        string // Function name
}

// Log is the record stored in the logs collection
type Log struct {
	Message       string    `bson:"message" json:"message"`
	SessionID     string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
	CorrelationID string    `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	LogLevelId    int       `bson:"log_level_id" json:"log_level_id"`
	Caller        string    `bson:"caller,omitempty" json:"caller,omitempty"`
	AppId         string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc  time.Time `bson:"created_on_utc" json:"created_on_utc"`
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
	appId   string
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000), // Buffer 1000 logs
		appId:   cfg.AppId,
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop instead of blocking command processing
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		logRecord := Log{
			Message:       entry.Message,
			SessionID:     entry.SessionID,
			CorrelationID: entry.CorrelationID,
			LogLevelId:    mapLevelToInt(entry.Level),
			Caller:        entry.Caller,
			AppId:         w.appId,
			CreatedOnUtc:  time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		w.db.Collection("logs").InsertOne(ctx, logRecord)
		cancel()
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
