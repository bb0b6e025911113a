// Package payloadlog keeps a rotating on-disk record of what the relay
// sent and what came back, for operators reconciling against the
// receiving API.
package payloadlog

import (
	"encoding/json"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"stellarelay/internal/config"
)

// Logger appends JSON lines to a size-rotated file. Record never blocks
// the event path on anything but local disk.
type Logger struct {
	mu     sync.Mutex
	writer *lumberjack.Logger
}

type entry struct {
	Type     string      `json:"type"`
	LoggedAt string      `json:"logged_at"`
	Entry    interface{} `json:"entry"`
}

func New(cfg config.PayloadLogConfig) *Logger {
	return &Logger{
		writer: &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		},
	}
}

// Record writes one entry. Marshal or write failures are returned so the
// caller can log them; they never stop delivery.
func (l *Logger) Record(entryType string, v interface{}) error {
	line, err := json.Marshal(entry{
		Type:     entryType,
		LoggedAt: time.Now().UTC().Format(time.RFC3339),
		Entry:    v,
	})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.writer.Write(line)
	return err
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer.Close()
}
