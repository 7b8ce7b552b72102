// Package faillog writes the append-only failed-request log of one run.
// Entries flow through a buffered channel to a single writer goroutine so
// the dispatch loop never blocks on disk I/O; when the buffer fills, entries
// are dropped with a warning instead of stalling the run.
package faillog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/storm-tools/storm/pkg/types"
)

const (
	defaultBuffer = 1024
	separator     = "--------------------------------------------------------------------------------"
)

// Entry is one failed request record.
type Entry struct {
	Timestamp time.Time
	Method    string
	Payload   []byte
	Class     types.ErrorClass
	Detail    string
}

// Logger is the per-run failure sink.
type Logger struct {
	path    string
	entries chan Entry
	done    chan struct{}
	closer  io.Closer
	logger  *slog.Logger

	closeOnce sync.Once
}

// New creates the log file under dir, writes the header block, and starts
// the writer goroutine. The file name embeds the run mode and a timestamp so
// successive runs never clobber each other.
func New(dir, mode, targetURL string, methods []string, logger *slog.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("%s_failed_requests_%s.log", mode, time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open failure log: %w", err)
	}

	methodList := "All"
	if len(methods) > 0 {
		methodList = strings.Join(methods, ", ")
	}
	header := fmt.Sprintf("# %s Failed Requests Log\n# Target: %s\n# Date: %s\n# Methods: %s\n# Format: [timestamp] method | request | error\n\n",
		strings.ToUpper(mode), targetURL, time.Now().Format("2006-01-02 15:04:05"), methodList)
	if _, err := file.WriteString(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write log header: %w", err)
	}

	l := newLogger(path, file, file, logger)
	return l, nil
}

// NewWriter creates a logger over an arbitrary writer without the file
// header. Used in tests.
func NewWriter(w io.Writer, logger *slog.Logger) *Logger {
	return newLogger("", w, nil, logger)
}

func newLogger(path string, w io.Writer, closer io.Closer, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Logger{
		path:    path,
		entries: make(chan Entry, defaultBuffer),
		done:    make(chan struct{}),
		closer:  closer,
		logger:  logger,
	}
	go l.writeLoop(w)
	return l
}

// FilePath returns the log file path, "" for writer-backed loggers.
func (l *Logger) FilePath() string {
	return l.path
}

// Record queues one failure entry. Never blocks; a full buffer drops the
// entry and reports it to the diagnostic log.
func (l *Logger) Record(method string, payload []byte, out types.Outcome) {
	entry := Entry{
		Timestamp: time.Now(),
		Method:    method,
		Payload:   payload,
		Class:     out.Class,
	}
	if out.Err != nil {
		entry.Detail = out.Err.Error()
	}

	select {
	case l.entries <- entry:
	default:
		l.logger.Warn("failure log buffer full, dropping entry",
			slog.String("method", method),
		)
	}
}

// Close drains queued entries, stops the writer and closes the file.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		close(l.entries)
		<-l.done
		if l.closer != nil {
			l.closer.Close()
		}
	})
}

func (l *Logger) writeLoop(w io.Writer) {
	defer close(l.done)

	for entry := range l.entries {
		block := fmt.Sprintf("[%s] %s (%s)\nRequest: %s\nError: %s\n%s\n\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Method,
			entry.Class,
			entry.Payload,
			entry.Detail,
			separator,
		)
		if _, err := io.WriteString(w, block); err != nil {
			l.logger.Warn("failed to write failure log entry",
				slog.String("method", entry.Method),
				slog.String("error", err.Error()),
			)
		}
	}
}
