// Package logging provides the daily application log: one plain-text file
// per calendar day under the log directory, each line formatted as
// "<timestamp> - <LEVEL> - <message>". The audit mirror writes to the same
// stream.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	filePrefix = "inventory_"
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"
)

// DailyWriter is an io.Writer that appends to logs/inventory_YYYY-MM-DD.log,
// rolling to a new file when the calendar day changes. Safe for concurrent
// use.
type DailyWriter struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	day  string
	file *os.File
}

// NewDailyWriter creates the log directory if needed. The first file is
// opened lazily on the first Write.
func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	day := w.now().Format(dateLayout)
	if w.file == nil || day != w.day {
		if w.file != nil {
			w.file.Close()
		}
		name := filepath.Join(w.dir, filePrefix+day+".log")
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return 0, fmt.Errorf("open log file: %w", err)
		}
		w.file = f
		w.day = day
	}

	return w.file.Write(p)
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.day = ""
	return err
}

// Filename returns the path the next Write would append to.
func (w *DailyWriter) Filename() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return filepath.Join(w.dir, filePrefix+w.now().Format(dateLayout)+".log")
}

// New builds the application logger on top of w using the flat
// "<timestamp> - <LEVEL> - <message>" line format. Verbose lowers the
// level floor to debug.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: timeLayout,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("- %s -", strings.ToUpper(fmt.Sprintf("%s", i)))
		},
	}

	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}
