package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/model"
	"github.com/Lutefd/currency-dashboard/internal/repository"
	"github.com/google/uuid"
)

var (
	DefaultBufferSize   = 1000
	LoggerSleepDuration = 100 * time.Millisecond
)

// Logger writes to stdout/stderr and, when a sink is attached, forwards every
// entry asynchronously to a LogRepository.
type Logger struct {
	InfoLogger  *log.Logger
	WarnLogger  *log.Logger
	ErrorLogger *log.Logger

	source  string
	sink    repository.LogRepository
	entries chan model.Log
	wg      sync.WaitGroup
	once    sync.Once
}

type Option func(*Logger)

func WithWriters(out, errOut io.Writer) Option {
	return func(l *Logger) {
		l.InfoLogger = log.New(out, "INFO: ", log.Ldate|log.Ltime)
		l.WarnLogger = log.New(out, "WARN: ", log.Ldate|log.Ltime)
		l.ErrorLogger = log.New(errOut, "ERROR: ", log.Ldate|log.Ltime)
	}
}

func WithSource(source string) Option {
	return func(l *Logger) {
		l.source = source
	}
}

func WithSink(repo repository.LogRepository, bufferSize int) Option {
	return func(l *Logger) {
		if bufferSize <= 0 {
			bufferSize = DefaultBufferSize
		}
		l.sink = repo
		l.entries = make(chan model.Log, bufferSize)
	}
}

func New(opts ...Option) *Logger {
	l := &Logger{source: "application"}
	WithWriters(os.Stdout, os.Stderr)(l)
	for _, opt := range opts {
		opt(l)
	}
	if l.sink != nil {
		l.wg.Add(1)
		go l.processLogs()
	}
	return l
}

// Nop discards everything.
func Nop() *Logger {
	return New(WithWriters(io.Discard, io.Discard))
}

func (l *Logger) processLogs() {
	defer l.wg.Done()
	for entry := range l.entries {
		if err := l.sink.SaveLog(context.Background(), entry); err != nil {
			l.ErrorLogger.Printf("failed to save log: %v", err)
		}
	}
}

func (l *Logger) write(level model.LogLevel, message string) {
	switch level {
	case model.LogLevelInfo:
		l.InfoLogger.Println(message)
	case model.LogLevelWarn:
		l.WarnLogger.Println(message)
	default:
		l.ErrorLogger.Println(message)
	}

	if l.sink == nil {
		return
	}

	entry := model.Log{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Source:    l.source,
	}

	defer func() {
		// the channel is closed once Shutdown has run
		if recover() != nil {
			l.ErrorLogger.Printf("logger shut down. Dropping log: %v", entry.Message)
		}
	}()

	select {
	case l.entries <- entry:
	default:
		l.ErrorLogger.Printf("log channel full. Dropping log: %v", entry.Message)
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.write(model.LogLevelInfo, fmt.Sprint(v...))
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(model.LogLevelInfo, fmt.Sprintf(format, v...))
}

func (l *Logger) Warn(v ...interface{}) {
	l.write(model.LogLevelWarn, fmt.Sprint(v...))
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(model.LogLevelWarn, fmt.Sprintf(format, v...))
}

func (l *Logger) Error(v ...interface{}) {
	l.write(model.LogLevelError, fmt.Sprint(v...))
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(model.LogLevelError, fmt.Sprintf(format, v...))
}

// Shutdown drains pending entries and closes the sink.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l.sink == nil {
		return nil
	}
	l.once.Do(func() { close(l.entries) })

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return l.sink.Close()
	}
}
