package util

import (
	"sync"

	"dolphinretro/interfaces"

	"github.com/rs/zerolog"
)

// HostLogWriter renders zerolog events as console lines and forwards them to
// the host's log sink at the matching level.
type HostLogWriter struct {
	sink interfaces.LogSink

	mu      sync.Mutex
	level   interfaces.LogLevel
	console zerolog.ConsoleWriter
	buf     CommitLogger
}

func NewHostLogWriter(sink interfaces.LogSink) *HostLogWriter {
	w := &HostLogWriter{sink: sink}
	w.buf.Committer = func(p []byte) {
		w.sink.Log(w.level, string(p))
	}
	w.console = zerolog.ConsoleWriter{
		Out:          &w.buf,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName},
	}
	return w
}

func (w *HostLogWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.NoLevel, p)
}

func (w *HostLogWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.level = HostLevel(level)
	if _, err := w.console.Write(p); err != nil {
		w.buf.Reset()
		return 0, err
	}
	w.buf.Commit()
	return len(p), nil
}

// HostLevel maps a zerolog level onto the four levels hosts understand.
func HostLevel(level zerolog.Level) interfaces.LogLevel {
	switch {
	case level <= zerolog.DebugLevel:
		return interfaces.LogDebug
	case level == zerolog.WarnLevel:
		return interfaces.LogWarn
	case level >= zerolog.ErrorLevel && level <= zerolog.PanicLevel:
		return interfaces.LogError
	default:
		return interfaces.LogInfo
	}
}
