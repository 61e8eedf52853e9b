package lobby

import (
	"strconv"
	"strings"
)

const (
	MethodDirect    = "direct"
	MethodTraversal = "traversal"
)

// Session is one advertised netplay room as returned by a room directory.
type Session struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	GameID      string `json:"game"`
	ServerID    string `json:"server_id"`
	Method      string `json:"method"`
	Port        int    `json:"port"`
	PlayerCount int    `json:"player_count"`
	HasPassword bool   `json:"password"`
	InGame      bool   `json:"in_game"`
	Version     string `json:"version"`
}

func (s Session) UsesTraversal() bool {
	return strings.EqualFold(s.Method, MethodTraversal)
}

// Matches reports whether s satisfies every filter. Unknown filter keys never match.
func Matches(s Session, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		var got string
		switch key {
		case "region":
			got = s.Region
		case "game":
			got = s.GameID
		case "name":
			if !strings.Contains(strings.ToLower(s.Name), strings.ToLower(want)) {
				return false
			}
			continue
		case "version":
			got = s.Version
		case "in_game":
			got = strconv.FormatBool(s.InGame)
		case "password":
			got = strconv.FormatBool(s.HasPassword)
		default:
			return false
		}
		if !strings.EqualFold(got, want) {
			return false
		}
	}
	return true
}
