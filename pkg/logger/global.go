package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
	once         sync.Once
)

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if globalLogger != nil {
			return
		}

		level := "info"
		if os.Getenv("DEBUG") == "true" {
			level = "debug"
		} else if env := os.Getenv("KWR_LOG_LEVEL"); env != "" {
			level = env
		}

		globalLogger = New(Config{
			Level:  level,
			Format: "json",
			Output: "stderr",
		})
	})

	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// SetLogger replaces the global logger. Loggers already derived with
// WithField keep writing to the previous instance.
func SetLogger(logger *Logger) {
	once.Do(func() {})
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
	SetGlobalLogger(logger)
}
