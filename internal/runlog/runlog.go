// Package runlog is the operator-visible running log: every significant
// pipeline step emits a timestamped line here, capped to the most recent
// entries, so a batch run can be reconstructed without re-running it.
package runlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"escriba/internal/logger"
)

// MaxEntries is how many entries the log retains.
const MaxEntries = 25

// Level classifies a log entry for styling and mirroring.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

// Entry is one timestamped line of the running log.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Log keeps the rolling operator log and echoes each entry to the console.
type Log struct {
	entries []Entry
	out     io.Writer
}

// New creates a running log writing styled lines to stdout.
func New() *Log {
	return &Log{out: os.Stdout}
}

// NewWithWriter creates a running log writing to the given writer.
func NewWithWriter(w io.Writer) *Log {
	return &Log{out: w}
}

// Infof records an informational step.
func (l *Log) Infof(format string, args ...any) {
	l.add(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf records a non-blocking problem.
func (l *Log) Warnf(format string, args ...any) {
	l.add(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf records a blocking failure.
func (l *Log) Errorf(format string, args ...any) {
	l.add(LevelError, fmt.Sprintf(format, args...))
}

func (l *Log) add(level Level, msg string) {
	e := Entry{Time: time.Now(), Level: level, Message: msg}
	l.entries = append(l.entries, e)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[len(l.entries)-MaxEntries:]
	}

	var style lipgloss.Style
	switch level {
	case LevelWarn:
		style = warnStyle
	case LevelError:
		style = errorStyle
	default:
		style = infoStyle
	}
	if l.out != nil {
		fmt.Fprintf(l.out, "%s %s\n", timeStyle.Render(e.Time.Format("15:04:05")), style.Render(msg))
	}

	switch level {
	case LevelWarn:
		logger.Warn(msg, nil)
	case LevelError:
		logger.Error(msg, nil, nil)
	default:
		logger.Info(msg, nil)
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
