package cheats

import (
	"strconv"
	"strings"
)

// ParseGeckoLine parses "XXXXXXXX YYYYYYYY". Tokens past the second are ignored.
func ParseGeckoLine(line string) (GeckoLine, bool) {
	code := GeckoLine{OriginalLine: line}

	items := strings.Split(line, " ")
	if len(items) < 2 {
		return code, false
	}

	addr, err := strconv.ParseUint(items[0], 16, 32)
	if err != nil {
		return code, false
	}
	data, err := strconv.ParseUint(items[1], 16, 32)
	if err != nil {
		return code, false
	}

	code.Address = uint32(addr)
	code.Data = uint32(data)
	return code, true
}

func parseGecko(name string, enabled bool, lines []string) (GeckoCode, bool) {
	code := GeckoCode{
		Name:           name,
		Enabled:        enabled,
		DefaultEnabled: enabled,
		UserDefined:    true,
	}

	for _, line := range lines {
		// unparsable lines are kept verbatim:
		parsed, _ := ParseGeckoLine(line)
		code.Codes = append(code.Codes, parsed)
	}

	return code, len(code.Codes) > 0
}
