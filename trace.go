package keycal

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// TraceSink receives a structured log record for every diagnostic a
// calibration step produces, in addition to it being appended to the
// token's own log (spec §9: "Logging is routed through a caller-supplied
// trace sink or no-op."). It is a thin wrapper over
// github.com/charmbracelet/log so hosts get leveled, colorized output the
// way the teacher's example programs configure their own loggers.
type TraceSink struct {
	logger *log.Logger
}

// NewTraceSink wraps an existing *log.Logger. Passing nil yields a sink
// whose emit is a no-op, matching the "no-op" default the core falls back
// to when no trace sink is supplied.
func NewTraceSink(logger *log.Logger) *TraceSink {
	return &TraceSink{logger: logger}
}

// NewDefaultTraceSink builds a TraceSink writing to stderr, colorized when
// the output profile supports it (mirroring how the teacher detects a
// ColorProfileMsg via github.com/muesli/termenv before deciding whether to
// style its own output).
func NewDefaultTraceSink() *TraceSink {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if termenv.NewOutput(os.Stderr).ColorProfile() == termenv.Ascii {
		l.SetColorProfile(termenv.Ascii)
	}
	return &TraceSink{logger: l}
}

func (t *TraceSink) emit(d Diagnostic) {
	if t == nil || t.logger == nil {
		return
	}
	fields := []any{"code", int(d.Type)}
	switch d.Level {
	case Error:
		t.logger.Error(d.Description, fields...)
	case Warning:
		t.logger.Warn(d.Description, fields...)
	default:
		t.logger.Info(d.Description, fields...)
	}
}

func (t *TraceSink) emitAll(l Log) {
	if t == nil {
		return
	}
	for _, d := range l.Information {
		t.emit(d)
	}
	for _, d := range l.Warnings {
		t.emit(d)
	}
	for _, d := range l.Errors {
		t.emit(d)
	}
}
