package util

import (
	"strings"
	"testing"

	"dolphinretro/interfaces"

	"github.com/rs/zerolog"
)

type recordingSink struct {
	levels []interfaces.LogLevel
	msgs   []string
}

func (s *recordingSink) Log(level interfaces.LogLevel, msg string) {
	s.levels = append(s.levels, level)
	s.msgs = append(s.msgs, msg)
}

func TestCommitLogger_CommitsCompleteLines(t *testing.T) {
	var got []string
	l := &CommitLogger{Committer: func(p []byte) { got = append(got, string(p)) }}

	_, _ = l.Write([]byte("partial "))
	if len(got) != 0 {
		t.Fatalf("committed early: %q", got)
	}
	_, _ = l.Write([]byte("line\n"))
	_, _ = l.Write([]byte("second\n"))

	want := []string{"partial line\n", "second\n"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHostLogWriter(t *testing.T) {
	sink := &recordingSink{}
	log := zerolog.New(NewHostLogWriter(sink)).Level(zerolog.DebugLevel)

	log.Debug().Msg("dbg")
	log.Info().Str("room", "abc").Msg("netplay: refreshed")
	log.Warn().Msg("careful")
	log.Error().Msg("broken")

	wantLevels := []interfaces.LogLevel{interfaces.LogDebug, interfaces.LogInfo, interfaces.LogWarn, interfaces.LogError}
	if len(sink.levels) != len(wantLevels) {
		t.Fatalf("got %d messages: %q", len(sink.msgs), sink.msgs)
	}
	for i, want := range wantLevels {
		if sink.levels[i] != want {
			t.Errorf("message %d level = %v, want %v", i, sink.levels[i], want)
		}
		if !strings.HasSuffix(sink.msgs[i], "\n") {
			t.Errorf("message %d not newline terminated: %q", i, sink.msgs[i])
		}
	}
	if !strings.Contains(sink.msgs[1], "netplay: refreshed") || !strings.Contains(sink.msgs[1], "room=abc") {
		t.Errorf("formatted message = %q", sink.msgs[1])
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		"off":     zerolog.Disabled,
		"warning": zerolog.WarnLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
