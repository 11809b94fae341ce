package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"redsyspay/entity"
	"redsyspay/services"
	"time"
)

const logStoreTimeout = 5 * time.Second

// Logger writes structured records to stdout and keeps errors in the log
// store when one is configured.
type Logger struct {
	category string
	logger   *slog.Logger
	store    services.LogStore
}

func NewLogger(category string, debug bool, store services.LogStore) *Logger {
	return newLogger(category, debug, store, os.Stdout)
}

func newLogger(category string, debug bool, store services.LogStore, w io.Writer) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{
		category: category,
		logger:   slog.New(handler).With("category", category),
		store:    store,
	}
}

func (l *Logger) Debug(text string) {
	l.logger.Debug(text)
}

func (l *Logger) Info(text string) {
	l.logger.Info(text)
}

// Warn is not persisted: rejected notifications log at this level and any
// client can produce them.
func (l *Logger) Warn(text string) {
	l.logger.Warn(text)
}

func (l *Logger) Error(text string, err error) {
	if err != nil {
		l.logger.Error(text, "error", err.Error())
		text = text + ": " + err.Error()
	} else {
		l.logger.Error(text)
	}
	l.persist("error", text)
}

func (l *Logger) persist(level, text string) {
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), logStoreTimeout)
	defer cancel()
	message := &entity.LogMessage{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Text:     text,
	}
	if err := l.store.WriteLogMessage(ctx, message); err != nil {
		l.logger.Debug("write log message", "error", err.Error())
	}
}
