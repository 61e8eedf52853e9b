package cheats

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var ErrUnparsable = errors.New("cheat unparsable")

// Decrypter decrypts a block of encrypted Action Replay lines, each given as
// its 13 concatenated characters.
type Decrypter interface {
	DecryptARCode(lines []string) ([]AREntry, error)
}

type Classifier struct {
	Decrypter Decrypter

	log zerolog.Logger
}

func NewClassifier(log zerolog.Logger, decrypter Decrypter) *Classifier {
	return &Classifier{
		Decrypter: decrypter,
		log:       log.With().Str("component", "cheats").Logger(),
	}
}

var backendPrefixes = []struct {
	prefix  string
	backend Backend
}{
	{"gecko:", Gecko},
	{"ar:", ActionReplay},
	{"actionreplay:", ActionReplay},
}

// SplitLines splits raw cheat text into statements on newlines or semicolons.
// Carriage returns are dropped, statements trimmed, and empty ones discarded.
func SplitLines(raw string) []string {
	var lines []string
	var b strings.Builder

	flush := func() {
		line := strings.TrimSpace(b.String())
		if line != "" {
			lines = append(lines, line)
		}
		b.Reset()
	}

	for _, r := range raw {
		switch r {
		case '\r':
		case '\n', ';':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()

	return lines
}

func stripBackendPrefix(lines []string) ([]string, Backend, bool) {
	if len(lines) == 0 {
		return lines, ActionReplay, false
	}

	first := strings.ToLower(lines[0])
	for _, p := range backendPrefixes {
		if !strings.HasPrefix(first, p.prefix) {
			continue
		}

		rest := strings.TrimSpace(lines[0][len(p.prefix):])
		if rest == "" {
			return lines[1:], p.backend, true
		}

		out := make([]string, len(lines))
		copy(out, lines)
		out[0] = rest
		return out, p.backend, true
	}

	return lines, ActionReplay, false
}

func detectBackend(lines []string) (Backend, bool) {
	arOK, geckoOK, hasEncrypted := true, true, false

	for _, line := range lines {
		switch ParseARLine(line).Kind {
		case ARLineEncrypted:
			hasEncrypted = true
		case ARLineEntry:
		case ARLineInvalid:
			arOK = false
		}

		if _, ok := ParseGeckoLine(line); !ok {
			geckoOK = false
		}
	}

	switch {
	case hasEncrypted, arOK:
		return ActionReplay, true
	case geckoOK:
		return Gecko, true
	}
	return ActionReplay, false
}

// Classify parses the raw text for the cheat slot at index. The returned
// entry is always usable; the error is non-nil exactly when the entry is not
// valid.
func (c *Classifier) Classify(index int, enabled bool, raw string) (Entry, error) {
	entry := Entry{
		Enabled: enabled,
		Backend: ActionReplay,
	}

	name := Name(index)
	lines, backend, forced := stripBackendPrefix(SplitLines(raw))
	if !forced {
		var ok bool
		backend, ok = detectBackend(lines)
		if !ok {
			entry.AR.Name = name
			return entry, fmt.Errorf("%s: %w: not an action replay or gecko code", name, ErrUnparsable)
		}
	}

	entry.Backend = backend
	switch backend {
	case ActionReplay:
		entry.AR, entry.Valid = c.parseAR(name, enabled, lines)
	case Gecko:
		entry.Gecko, entry.Valid = parseGecko(name, enabled, lines)
	}

	if !entry.Valid {
		return entry, fmt.Errorf("%s: %w: no %s operations", name, ErrUnparsable, backend)
	}
	return entry, nil
}
