// Package common provides the logger and request-scoped helpers shared by the portal.
package common

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"

	"github.com/bobmcallan/signin-portal/internal/config"
)

const (
	logTimeFormat     = "2006-01-02T15:04:05Z07:00"
	defaultLogLevel   = "info"
	defaultLogFile    = "logs/portal.log"
	defaultMaxLogSize = 500 * 1024
	defaultLogBackups = 20
)

// Logger is the portal's structured logger, backed by arbor.
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a console logger at level.
func NewLogger(level string) *Logger {
	return NewLoggerFromConfig(config.LoggingConfig{Level: level})
}

// NewLoggerFromConfig builds a logger from the [logging] section. Outputs are
// "console" (stderr) and "file" (rotating); unknown outputs are ignored. A
// memory writer is always attached.
func NewLoggerFromConfig(cfg config.LoggingConfig) *Logger {
	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console"}
	}

	l := arbor.NewLogger()
	for _, out := range outputs {
		switch strings.ToLower(strings.TrimSpace(out)) {
		case "console":
			l = l.WithConsoleWriter(consoleWriter())
		case "file":
			l = l.WithFileWriter(fileWriter(cfg))
		}
	}

	return &Logger{ILogger: withMemory(l, cfg.Level)}
}

// NewLoggerWithOutput creates a logger that renders events as text lines on w.
// The adapter replaces arbor's global console writer.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	arbor.RegisterWriter(arbor.WRITER_CONSOLE, &lineWriter{out: w, level: log.TraceLevel})
	return &Logger{ILogger: withMemory(arbor.NewLogger(), level)}
}

// NewSilentLogger creates a logger that writes nowhere, not even to globally
// registered writers.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{discard{}})}
}

// WithCorrelationId returns a child logger tagged with a correlation id.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}

// ForRequest returns a logger tagged with the correlation id carried by ctx,
// or l itself when there is none.
func (l *Logger) ForRequest(ctx context.Context) *Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return l.WithCorrelationId(id)
	}
	return l
}

func withMemory(l arbor.ILogger, level string) arbor.ILogger {
	if level == "" {
		level = defaultLogLevel
	}
	return l.WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	}).WithLevelFromString(level)
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		Writer:     os.Stderr,
		TimeFormat: logTimeFormat,
	}
}

func fileWriter(cfg config.LoggingConfig) models.WriterConfiguration {
	wc := models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   cfg.FilePath,
		MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		MaxBackups: cfg.MaxBackups,
		TimeFormat: logTimeFormat,
	}
	if wc.FileName == "" {
		wc.FileName = defaultLogFile
	}
	if wc.MaxSize <= 0 {
		wc.MaxSize = defaultMaxLogSize
	}
	if wc.MaxBackups <= 0 {
		wc.MaxBackups = defaultLogBackups
	}
	return wc
}

// discard is an arbor writer that drops every event.
type discard struct{}

func (discard) Write(p []byte) (int, error)           { return len(p), nil }
func (d discard) WithLevel(log.Level) writers.IWriter { return d }
func (discard) GetFilePath() string                   { return "" }
func (discard) Close() error                          { return nil }

// lineWriter renders arbor's JSON events as "message key=value ..." lines,
// fields sorted by key.
type lineWriter struct {
	out   io.Writer
	level log.Level
}

func (w *lineWriter) Write(p []byte) (int, error) {
	var evt models.LogEvent
	if err := json.Unmarshal(p, &evt); err != nil {
		return w.out.Write(p)
	}
	if evt.Level < w.level {
		return len(p), nil
	}

	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(evt.Message)
	for _, k := range keys {
		b.WriteString(" " + k + "=")
		b.WriteString(toText(evt.Fields[k]))
	}
	if evt.Error != "" {
		b.WriteString(" error=" + evt.Error)
	}
	b.WriteByte('\n')
	return w.out.Write([]byte(b.String()))
}

func (w *lineWriter) WithLevel(level log.Level) writers.IWriter {
	w.level = level
	return w
}

func (w *lineWriter) GetFilePath() string { return "" }
func (w *lineWriter) Close() error        { return nil }

func toText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
