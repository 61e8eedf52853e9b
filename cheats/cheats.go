package cheats

import "fmt"

// Backend identifies which of the two mutually exclusive code formats a cheat uses.
type Backend int

const (
	ActionReplay Backend = iota
	Gecko
)

func (b Backend) String() string {
	switch b {
	case ActionReplay:
		return "actionreplay"
	case Gecko:
		return "gecko"
	}
	return "unknown"
}

// AREntry is one decrypted Action Replay operation.
type AREntry struct {
	CmdAddr uint32
	Value   uint32
}

type ARCode struct {
	Name           string
	Ops            []AREntry
	Enabled        bool
	DefaultEnabled bool
	UserDefined    bool
}

// GeckoLine is one line of a Gecko code. Lines that did not parse keep only
// OriginalLine and are passed through to the core untouched.
type GeckoLine struct {
	Address      uint32
	Data         uint32
	OriginalLine string
}

type GeckoCode struct {
	Name           string
	Codes          []GeckoLine
	Enabled        bool
	DefaultEnabled bool
	UserDefined    bool
}

// Entry is a classified cheat slot.
type Entry struct {
	Enabled bool
	Valid   bool
	Backend Backend
	AR      ARCode
	Gecko   GeckoCode
}

// Name synthesizes the display name of the cheat in the given slot.
func Name(index int) string {
	return fmt.Sprintf("Cheat %d", index+1)
}

func (e Entry) String() string {
	switch e.Backend {
	case ActionReplay:
		return fmt.Sprintf("%s [%s valid=%t enabled=%t ops=%d]", e.AR.Name, e.Backend, e.Valid, e.Enabled, len(e.AR.Ops))
	case Gecko:
		return fmt.Sprintf("%s [%s valid=%t enabled=%t codes=%d]", e.Gecko.Name, e.Backend, e.Valid, e.Enabled, len(e.Gecko.Codes))
	}
	return "invalid cheat"
}
