package inja

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger, kept as its own
// type (rather than using zerolog.Logger directly everywhere) so the
// call sites read the way the teacher's hand-rolled Logger/Fields/
// WithField shape did, with zerolog doing the actual leveled,
// structured work underneath.
type Logger struct {
	z zerolog.Logger
}

// NewLogger builds a Logger at the given level ("debug", "info",
// "warn", "error"; unrecognised values fall back to info).
func NewLogger(level string) *Logger {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		l = zerolog.InfoLevel
	}
	z := zerolog.New(os.Stderr).Level(l).With().Timestamp().Logger()
	return &Logger{z: z}
}

// WithRenderID returns a child Logger tagging every subsequent log
// line with a fresh correlation id, the way a request-scoped logger
// would be in a server. Each Render call gets one of these.
func (l *Logger) WithRenderID() *Logger {
	id := uuid.New().String()
	return &Logger{z: l.z.With().Str("render_id", id).Logger()}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.z.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.z.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.z.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.z.Error().Msgf(format, args...)
}

// DebugExpr logs an expression being evaluated, gated at debug level
// the way the teacher's debug-only expression dumps were.
func (l *Logger) DebugExpr(expr string, loc Location) {
	l.z.Debug().Str("expr", expr).Int("line", loc.Line).Int("col", loc.Column).Msg("evaluating expression")
}
