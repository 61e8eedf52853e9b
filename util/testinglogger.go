package util

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestingWriter commits each written line to tb.Log. Lines written after
// the test has finished are dropped.
func NewTestingWriter(tb testing.TB) *CommitLogger {
	var mu sync.Mutex
	done := false
	tb.Cleanup(func() {
		mu.Lock()
		done = true
		mu.Unlock()
	})

	return &CommitLogger{
		Committer: func(p []byte) {
			mu.Lock()
			defer mu.Unlock()
			if done {
				return
			}
			tb.Log(string(bytes.TrimRight(p, "\n")))
		},
	}
}

// NewTestingLogger returns a debug-level logger writing through tb.Log.
func NewTestingLogger(tb testing.TB) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: NewTestingWriter(tb), NoColor: true}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
}
