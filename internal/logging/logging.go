// Package logging sets up the charmbracelet logger used by hierpcb and routes
// replication diagnostics into it.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/OpenTraceLab/hierpcb/pkg/kicad/pcb"
	"github.com/OpenTraceLab/hierpcb/pkg/replicate"
)

// LogFileSuffix is appended to a board path to name its log file.
const LogFileSuffix = ".hierpcb.log"

// New creates a logger writing to w. Verbose enables debug output.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// LogFilePath returns the log file path for a board.
func LogFilePath(board string) string {
	return strings.TrimSuffix(board, ".kicad_pcb") + LogFileSuffix
}

// OpenFile opens the log file for board, truncating any previous run, and
// returns a logger that writes both to it and to w.
func OpenFile(w io.Writer, board string, verbose bool) (*log.Logger, io.Closer, error) {
	f, err := os.Create(LogFilePath(board))
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	l := New(io.MultiWriter(w, f), verbose)
	l.SetFormatter(log.LogfmtFormatter)
	return l, f, nil
}

// Progress tracks the start time of an operation and logs completion with
// the elapsed duration.
type Progress struct {
	logger *log.Logger
	start  time.Time
}

// NewProgress starts a progress tracker.
func NewProgress(l *log.Logger) *Progress {
	return &Progress{logger: l, start: time.Now()}
}

// Done logs msg along with the elapsed time.
func (p *Progress) Done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a context carrying l.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger attached to ctx, or log.Default.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// Level maps a diagnostic severity onto a log level.
func Level(s replicate.Severity) log.Level {
	switch s {
	case replicate.Info:
		return log.InfoLevel
	case replicate.Warning:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

// SinkFor returns a diagnostic sink that logs every report on l.
func SinkFor(l *log.Logger) replicate.Sink {
	return replicate.SinkFunc(func(e replicate.ReportedError) {
		l.Log(Level(e.Severity), e.Title, keyvals(e)...)
	})
}

func keyvals(e replicate.ReportedError) []any {
	var kv []any
	if e.Message != "" {
		kv = append(kv, "detail", e.Message)
	}
	if fp, ok := e.Item.(*pcb.Footprint); ok {
		kv = append(kv, "footprint", fp.Reference())
	} else if e.Item != nil {
		kv = append(kv, "item", pcb.Describe(e.Item))
	}
	if e.Sheet != "" {
		kv = append(kv, "sheet", e.Sheet)
	}
	if e.SubPCB != "" {
		kv = append(kv, "subpcb", e.SubPCB)
	}
	return kv
}
