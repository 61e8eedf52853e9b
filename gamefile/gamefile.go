// Package gamefile identifies GameCube and Wii game files, including disc
// images stored inside archives, and compares them for netplay.
package gamefile

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoGameFile        = errors.New("no game file found in archive")
	ErrUnsupportedFormat = errors.New("unsupported game file format")
)

const (
	headerSize = 0x440
	// portion of the disc header covered by the sync digest:
	digestSize = 0x100

	wiiMagic      = 0x5D1C9EA3
	gamecubeMagic = 0xC2339F3D
)

var (
	magicZIP  = []byte{0x50, 0x4B, 0x03, 0x04}
	magic7z   = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip = []byte{0x1F, 0x8B}
	magicRAR  = []byte{0x52, 0x61, 0x72, 0x21}
)

// offset of the disc header inside each disc container:
var discContainers = map[string]int64{
	".iso":  0,
	".gcm":  0,
	".wbfs": 0x200,
	".ciso": 0x8000,
}

// files accepted without reading a disc header:
var opaqueExtensions = map[string]Platform{
	".dol": Executable,
	".elf": Executable,
	".wad": Wii,
	".gcz": Unknown,
	".rvz": Unknown,
	".wia": Unknown,
	".tgc": GameCube,
}

type Platform int

const (
	Unknown Platform = iota
	GameCube
	Wii
	Executable
)

func (p Platform) String() string {
	switch p {
	case GameCube:
		return "GameCube"
	case Wii:
		return "Wii"
	case Executable:
		return "executable"
	}
	return "unknown"
}

type GameFile struct {
	Path       string
	FileName   string
	GameID     string
	DiscNumber uint8
	Revision   uint8
	Title      string
	Platform   Platform
	// Opaque is set when the identity came from the file name only.
	Opaque bool

	digest [sha1.Size]byte
}

// IsValid reports whether the file can be booted and announced to peers.
func (g *GameFile) IsValid() bool {
	return g != nil && g.Path != "" && (g.Opaque || g.Platform != Unknown)
}

// NetPlayName is the human readable name announced to netplay peers.
func (g *GameFile) NetPlayName() string {
	if g == nil {
		return ""
	}

	name := g.Title
	if name == "" {
		name = strings.TrimSuffix(g.FileName, filepath.Ext(g.FileName))
	}
	if g.GameID == "" {
		return name
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(" (")
	b.WriteString(g.GameID)
	if g.Revision != 0 {
		fmt.Fprintf(&b, ", Revision %d", g.Revision)
	}
	if g.DiscNumber != 0 {
		fmt.Fprintf(&b, ", Disc %d", g.DiscNumber+1)
	}
	b.WriteString(")")
	return b.String()
}

func (g *GameFile) SyncIdentifier() SyncIdentifier {
	if g == nil {
		return SyncIdentifier{}
	}
	return SyncIdentifier{
		GameID:     g.GameID,
		Revision:   g.Revision,
		DiscNumber: g.DiscNumber,
		Digest:     g.digest,
	}
}

// Open reads the identity of the game file at path. Archives are searched for
// their first disc image or executable.
func Open(path string) (*GameFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gamefile: open: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 8)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("gamefile: read magic: %w", err)
	}
	magic = magic[:n]

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("gamefile: seek: %w", err)
	}

	lower := strings.ToLower(path)
	switch {
	case bytes.HasPrefix(magic, magicZIP) || strings.HasSuffix(lower, ".zip"):
		return openZIP(path)
	case bytes.HasPrefix(magic, magic7z) || strings.HasSuffix(lower, ".7z"):
		return open7z(path)
	case bytes.HasPrefix(magic, magicRAR) || strings.HasSuffix(lower, ".rar"):
		return openRAR(path)
	case bytes.HasPrefix(magic, magicGzip) || strings.HasSuffix(lower, ".gz"):
		return openGzip(path, f)
	}

	g, err := identify(filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	g.Path = path
	return g, nil
}

func isGameFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := discContainers[ext]; ok {
		return true
	}
	_, ok := opaqueExtensions[ext]
	return ok
}

// identify reads the header of a single game file given its base name.
func identify(name string, r io.Reader) (*GameFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	g := &GameFile{FileName: name}

	if platform, ok := opaqueExtensions[ext]; ok {
		g.Platform = platform
		g.Opaque = true
		g.digest = sha1.Sum([]byte(strings.ToLower(name)))
		return g, nil
	}

	offset, ok := discContainers[ext]
	if !ok {
		return nil, fmt.Errorf("gamefile: %w: %s", ErrUnsupportedFormat, name)
	}

	if offset > 0 {
		if _, err := io.CopyN(io.Discard, r, offset); err != nil {
			return nil, fmt.Errorf("gamefile: skip container header: %w", err)
		}
	}

	header := make([]byte, headerSize)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("gamefile: read disc header: %w", err)
	}
	if n < digestSize {
		return nil, fmt.Errorf("gamefile: %w: %s: truncated disc header", ErrUnsupportedFormat, name)
	}
	header = header[:n]

	parseHeader(g, header)
	g.digest = sha1.Sum(header[:digestSize])
	return g, nil
}

func parseHeader(g *GameFile, header []byte) {
	g.GameID = strings.TrimRight(string(header[0:6]), "\x00 ")
	g.DiscNumber = header[6]
	g.Revision = header[7]

	switch {
	case binary.BigEndian.Uint32(header[0x18:0x1C]) == wiiMagic:
		g.Platform = Wii
	case binary.BigEndian.Uint32(header[0x1C:0x20]) == gamecubeMagic:
		g.Platform = GameCube
	default:
		g.Platform = Unknown
	}

	title := header[0x20:]
	if i := bytes.IndexByte(title, 0); i >= 0 {
		title = title[:i]
	}
	g.Title = strings.TrimSpace(string(title))
}
