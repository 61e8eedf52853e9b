package cheats

import (
	"strconv"
	"strings"
)

type ARLineKind int

const (
	ARLineInvalid ARLineKind = iota
	ARLineEntry
	ARLineEncrypted
)

// ARLine is the result of parsing a single Action Replay line. Exactly one of
// Entry or Encrypted is meaningful, selected by Kind.
type ARLine struct {
	Kind      ARLineKind
	Entry     AREntry
	Encrypted string
}

// ParseARLine parses either a plain "XXXXXXXX YYYYYYYY" entry or an encrypted
// "XXXX-XXXX-XXXXX" line.
func ParseARLine(line string) ARLine {
	pieces := strings.Split(line, " ")
	if len(pieces) == 2 && len(pieces[0]) == 8 && len(pieces[1]) == 8 {
		addr, err1 := strconv.ParseUint(pieces[0], 16, 32)
		value, err2 := strconv.ParseUint(pieces[1], 16, 32)
		if err1 != nil || err2 != nil {
			return ARLine{Kind: ARLineInvalid}
		}
		return ARLine{
			Kind:  ARLineEntry,
			Entry: AREntry{CmdAddr: uint32(addr), Value: uint32(value)},
		}
	}

	pieces = strings.Split(line, "-")
	if len(pieces) == 3 && len(pieces[0]) == 4 && len(pieces[1]) == 4 && len(pieces[2]) == 5 {
		return ARLine{
			Kind:      ARLineEncrypted,
			Encrypted: pieces[0] + pieces[1] + pieces[2],
		}
	}

	return ARLine{Kind: ARLineInvalid}
}

// parseAR returns false when any line is neither a plain nor an encrypted entry.
func (c *Classifier) parseAR(name string, enabled bool, lines []string) (code ARCode, ok bool) {
	code = ARCode{
		Name:           name,
		Enabled:        enabled,
		DefaultEnabled: enabled,
		UserDefined:    true,
	}

	var encrypted []string
	for _, line := range lines {
		parsed := ParseARLine(line)
		switch parsed.Kind {
		case ARLineEntry:
			code.Ops = append(code.Ops, parsed.Entry)
		case ARLineEncrypted:
			encrypted = append(encrypted, parsed.Encrypted)
		case ARLineInvalid:
			code.Ops = nil
			return code, false
		}
	}

	if len(encrypted) > 0 {
		if c.Decrypter == nil {
			c.log.Warn().Str("name", name).Int("lines", len(encrypted)).Msg("cheats: parseAR: no decrypter for encrypted lines")
		} else {
			ops, err := c.Decrypter.DecryptARCode(encrypted)
			if err != nil {
				c.log.Warn().Err(err).Str("name", name).Msg("cheats: parseAR: decrypt failed")
			} else {
				code.Ops = append(code.Ops, ops...)
			}
		}
	}

	return code, len(code.Ops) > 0
}
