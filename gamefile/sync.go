package gamefile

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// SyncIdentifier is what netplay peers compare to agree on the game.
type SyncIdentifier struct {
	GameID     string
	Revision   uint8
	DiscNumber uint8
	Digest     [sha1.Size]byte
}

type Comparison int

const (
	SameGame Comparison = iota
	DifferentGame
	DifferentRegion
	DifferentRevision
	DifferentDiscNumber
	DifferentHash
)

func (c Comparison) String() string {
	switch c {
	case SameGame:
		return "same game"
	case DifferentGame:
		return "different game"
	case DifferentRegion:
		return "different region"
	case DifferentRevision:
		return "different revision"
	case DifferentDiscNumber:
		return "different disc number"
	case DifferentHash:
		return "different hash"
	}
	return "unknown"
}

func (s SyncIdentifier) IsZero() bool {
	return s == SyncIdentifier{}
}

func (s SyncIdentifier) String() string {
	return fmt.Sprintf("%s rev %d disc %d %s", s.GameID, s.Revision, s.DiscNumber, hex.EncodeToString(s.Digest[:4]))
}

// Compare reports how other differs from s, checking the game code first and
// the digest last.
func (s SyncIdentifier) Compare(other SyncIdentifier) Comparison {
	code, otherCode := s.GameID, other.GameID
	if len(code) >= 4 && len(otherCode) >= 4 {
		if code[:3] != otherCode[:3] || code[4:] != otherCode[4:] {
			return DifferentGame
		}
		if code[3] != otherCode[3] {
			return DifferentRegion
		}
	} else if code != otherCode {
		return DifferentGame
	}

	if s.Revision != other.Revision {
		return DifferentRevision
	}
	if s.DiscNumber != other.DiscNumber {
		return DifferentDiscNumber
	}
	if s.Digest != other.Digest {
		return DifferentHash
	}
	return SameGame
}
