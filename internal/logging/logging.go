// Package logging owns the process logger and its optional rotating log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tello-control/tello/internal/config"
)

// Manager owns logger configuration and the log file lifecycle.
type Manager struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	file   *lumberjack.Logger
}

// NewManager returns a Manager logging at info level to stdout.
func NewManager() *Manager {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	return &Manager{logger: logger}
}

// Configure applies level, format and the optional rotating file. A
// previously opened file is closed.
func (m *Manager) Configure(cfg config.LoggingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	writer := io.Writer(os.Stdout)
	if cfg.File != "" {
		m.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		writer = io.MultiWriter(os.Stdout, m.file)
	}

	m.logger.SetOutput(writer)
	m.logger.SetLevel(level)
	if cfg.Format == "json" {
		m.logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		m.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return nil
}

// Logger returns an entry scoped to component.
func (m *Manager) Logger(component string) *logrus.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger.WithField("component", component)
}

// Root returns the underlying logger.
func (m *Manager) Root() *logrus.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.logger
}

// Close closes the log file, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return err
		}
		m.file = nil
	}

	return nil
}

// Discard returns an entry that drops everything. Used when callers pass no logger.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// OrDiscard returns entry, or a discarding entry when it is nil.
func OrDiscard(entry *logrus.Entry) *logrus.Entry {
	if entry == nil {
		return Discard()
	}
	return entry
}
